package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pm-functions/internal/api/middleware"
	"pm-functions/internal/api/utils"
	"pm-functions/internal/gateway"
	"pm-functions/internal/logger"
)

// Gateway is the part of *gateway.Gateway the endpoints use.
type Gateway interface {
	Invoke(ctx context.Context, procedure string, b gateway.Binding) (gateway.Result, error)
	Execute(ctx context.Context, sqlText string) (gateway.Result, error)
}

type Handlers struct {
	gw  Gateway
	log logger.LoggerService
	now func() time.Time
}

func New(gw Gateway, log logger.LoggerService) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{gw: gw, log: log, now: time.Now}
}

// Register mounts every function endpoint on r under its function name.
func (h *Handlers) Register(r chi.Router) {
	for _, ep := range propertyEndpoints {
		h.mountProcedure(r, ep)
	}
	for _, ep := range tenantEndpoints {
		h.mountProcedure(r, ep)
	}
	for _, ep := range rentEndpoints {
		h.mountProcedure(r, ep)
	}
	for _, ep := range maintenanceEndpoints {
		h.mountProcedure(r, ep)
	}
	for _, ep := range viewEndpoints {
		r.Get("/"+ep.name, h.view(ep))
	}
}

func (h *Handlers) mountProcedure(r chi.Router, ep procEndpoint) {
	fn := h.procedure(ep)
	for _, m := range ep.methods {
		r.Method(m, "/"+ep.name, fn)
	}
}

// procEndpoint describes a function backed by a stored procedure. Endpoints
// with body params read a JSON object; the rest read the query string.
type procEndpoint struct {
	name      string
	methods   []string
	procedure string
	created   bool
	query     []queryParam
	body      []bodyParam
	required  []string
	missing   string
	output    string
}

func (ep procEndpoint) bind(w http.ResponseWriter, r *http.Request, now time.Time) (gateway.Binding, error) {
	var (
		fields []gateway.Field
		err    error
	)
	if len(ep.body) > 0 {
		data, rerr := readBody(w, r)
		if rerr != nil {
			return gateway.Binding{}, rerr
		}
		fields, err = bindBody(data, ep.body, ep.required, ep.missing, now)
	} else {
		fields, err = bindQuery(r.URL.Query(), ep.query, ep.missing)
	}
	if err != nil {
		return gateway.Binding{}, err
	}
	if ep.output != "" {
		fields = append(fields, gateway.P(ep.output, gateway.Null()))
	}
	return gateway.Bind(fields...), nil
}

func (h *Handlers) procedure(ep procEndpoint) http.HandlerFunc {
	status := http.StatusOK
	if ep.created {
		status = http.StatusCreated
	}

	return func(w http.ResponseWriter, r *http.Request) {
		log := h.requestLogger(r, ep.name)
		log.Debug(ep.name + " triggered")

		b, err := ep.bind(w, r, h.now())
		if err != nil {
			writeValidation(w, err)
			return
		}

		res, err := h.gw.Invoke(r.Context(), ep.procedure, b)
		h.respond(w, log, ep.name, status, res, err)
	}
}

// viewEndpoint describes a read-only function over a view. filter names the
// query key holding an optional integer property id.
type viewEndpoint struct {
	name    string
	view    string
	filter  string
	orderBy string
}

// sqlText builds the statement. Only a parsed integer is ever interpolated.
func (ep viewEndpoint) sqlText(q url.Values) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(ep.view)
	if ep.filter != "" {
		if raw := q.Get(ep.filter); raw != "" {
			id, err := parseInt(ep.filter, raw)
			if err != nil {
				return "", err
			}
			b.WriteString(" WHERE property_id = ")
			b.WriteString(strconv.FormatInt(id, 10))
		}
	}
	if ep.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(ep.orderBy)
	}
	return b.String(), nil
}

func (h *Handlers) view(ep viewEndpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.requestLogger(r, ep.name)
		log.Debug(ep.name + " triggered")

		text, err := ep.sqlText(r.URL.Query())
		if err != nil {
			writeValidation(w, err)
			return
		}

		res, err := h.gw.Execute(r.Context(), text)
		h.respond(w, log, ep.name, http.StatusOK, res, err)
	}
}

func (h *Handlers) requestLogger(r *http.Request, name string) logger.LoggerService {
	return h.log.With("function", name, "invocationId", middleware.InvocationIDFrom(r.Context()))
}

func (h *Handlers) respond(w http.ResponseWriter, log logger.LoggerService, name string, status int, res gateway.Result, err error) {
	if err != nil {
		log.Error("Error in "+name, err)
		code := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			code = http.StatusGatewayTimeout
		}
		utils.WriteEnvelope(w, code, gateway.NewEnvelope(res, err))
		return
	}
	utils.WriteEnvelope(w, status, gateway.NewEnvelope(res, nil))
}

func writeValidation(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		utils.WriteError(w, vErr.status, vErr.msg, vErr.code, vErr.details)
		return
	}
	utils.WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST", nil)
}
