// Package gateway runs stored procedures and SQL text against SQL Server and
// turns the first result set, plus any OUTPUT parameters, into a uniform
// JSON envelope.
package gateway

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pm-functions/internal/logger"
)

// Result is a successful call: the first result set and the OUTPUT
// parameter values keyed by OutputKey.
type Result struct {
	Rows    ResultSet
	Outputs Record
}

// Gateway executes calls on dedicated connections taken from db. It holds
// no per-call state and is safe for concurrent use.
type Gateway struct {
	db      *sql.DB
	log     logger.LoggerService
	timeout time.Duration
}

type Option func(*Gateway)

func WithLogger(log logger.LoggerService) Option {
	return func(g *Gateway) {
		if log != nil {
			g.log = log
		}
	}
}

// WithTimeout bounds each call. Zero leaves only the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

func New(db *sql.DB, opts ...Option) *Gateway {
	g := &Gateway{db: db, log: logger.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type outParam struct {
	name string
	dest sql.NullInt32
}

// Invoke calls a stored procedure. Every parameter is passed by name;
// names matching IsOutputParam are bound as nullable int OUTPUT parameters
// and their supplied values ignored. Only the first result set is returned;
// later ones are read and discarded.
func (g *Gateway) Invoke(ctx context.Context, procedure string, b Binding) (Result, error) {
	procedure = strings.TrimSpace(procedure)
	if procedure == "" {
		return Result{}, newError(ErrExecution, ErrProcedureRequired)
	}

	args := make([]any, 0, b.Len())
	outs := make([]*outParam, 0)
	for _, f := range b.fields {
		name := paramName(f.Name)
		if IsOutputParam(name) {
			out := &outParam{name: name}
			outs = append(outs, out)
			args = append(args, sql.Named(name, sql.Out{Dest: &out.dest}))
			continue
		}
		args = append(args, sql.Named(name, f.Value.arg()))
	}

	g.log.Debug("invoking procedure", "procedure", procedure, "params", len(args), "outputs", len(outs))

	rows, err := g.run(ctx, procedure, args)
	if err != nil {
		g.logFailure("procedure call failed", procedure, err)
		return Result{}, err
	}

	res := Result{Rows: rows}
	for _, out := range outs {
		v := Null()
		if out.dest.Valid {
			v = Int(int64(out.dest.Int32))
		}
		res.Outputs.Set(OutputKey(out.name), v)
	}
	return res, nil
}

// Execute runs sqlText exactly as given and returns its first result set.
// The text is not escaped or parameterized: callers that splice request data
// into it own the injection risk and must only splice validated values.
func (g *Gateway) Execute(ctx context.Context, sqlText string) (Result, error) {
	if strings.TrimSpace(sqlText) == "" {
		return Result{}, newError(ErrExecution, ErrQueryRequired)
	}

	g.log.Debug("executing query", "sql", sqlText)

	rows, err := g.run(ctx, sqlText, nil)
	if err != nil {
		g.logFailure("query failed", sqlText, err)
		return Result{}, err
	}
	return Result{Rows: rows}, nil
}

// run takes a connection, executes, materializes the first result set and
// drains the rest. The connection is released on every path.
func (g *Gateway) run(ctx context.Context, text string, args []any) (ResultSet, error) {
	if g.db == nil {
		return nil, newError(ErrConnection, errors.New("db connection is required"))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	conn, err := g.db.Conn(ctx)
	if err != nil {
		return nil, newError(ErrConnection, err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, newError(ErrExecution, err)
	}
	defer rows.Close()

	set, err := Materialize(rows)
	if err != nil {
		return nil, err
	}

	for rows.NextResultSet() {
		for rows.Next() {
		}
	}
	if err := rows.Err(); err != nil {
		return nil, newError(ErrExecution, err)
	}
	if err := rows.Close(); err != nil {
		return nil, newError(ErrExecution, err)
	}
	return set, nil
}

func (g *Gateway) logFailure(msg, target string, err error) {
	args := []any{"target", target, "kind", KindOf(err).String()}
	if num, ok := sqlErrorNumber(err); ok {
		args = append(args, "sqlError", num)
	}
	g.log.Error(msg, err, args...)
}
