package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"pm-functions/internal/gateway"
)

// errFailed marks a call whose failure envelope was already printed.
var errFailed = errors.New("call failed")

func newCallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "call <procedure> [name=value ...]",
		Short: "Invoke a stored procedure and print the envelope",
		Long: `Invoke a stored procedure once. Values are read as JSON scalars
(42, 12.50, true, null, "text") and fall back to plain strings. Parameters
named New<Name>Id are bound as OUTPUT parameters.`,
		Example: `  pm-functions call pm.sp_GetPropertyById PropertyId=12
  pm-functions call pm.sp_CreateMaintenance PropertyId=12 Description="Leaking tap" NewMaintenanceId=null`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}

			a, err := openApp(opts.configPath, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.gw.Invoke(cmd.Context(), args[0], b)
			return printEnvelope(cmd.OutOrStdout(), res, err)
		},
	}
}

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var allowWrite bool

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a SQL statement and print the envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !allowWrite {
				if err := gateway.CheckReadOnly(args[0]); err != nil {
					return fmt.Errorf("%w (pass --allow-write to run it anyway)", err)
				}
			}

			a, err := openApp(opts.configPath, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.gw.Execute(cmd.Context(), args[0])
			return printEnvelope(cmd.OutOrStdout(), res, err)
		},
	}

	cmd.Flags().BoolVar(&allowWrite, "allow-write", false, "skip the read-only check")
	return cmd
}

func printEnvelope(w io.Writer, res gateway.Result, err error) error {
	fmt.Fprintln(w, string(gateway.NewEnvelope(res, err).Marshal()))
	if err != nil {
		return errFailed
	}
	return nil
}

func parseAssignments(args []string) (gateway.Binding, error) {
	fields := make([]gateway.Field, 0, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || strings.TrimPrefix(name, "@") == "" {
			return gateway.Binding{}, fmt.Errorf("invalid parameter %q: want name=value", arg)
		}
		fields = append(fields, gateway.P(name, parseLiteral(raw)))
	}
	return gateway.Bind(fields...), nil
}

func parseLiteral(s string) gateway.Value {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return gateway.String(s)
	}

	switch t := v.(type) {
	case nil:
		return gateway.Null()
	case bool:
		return gateway.Bool(t)
	case string:
		return gateway.String(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return gateway.Int(n)
		}
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return gateway.Decimal(d)
		}
	}
	return gateway.String(s)
}
