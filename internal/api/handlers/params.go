package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pm-functions/internal/gateway"
)

const maxBodyBytes = 1 << 20

type validationError struct {
	status  int
	code    string
	msg     string
	details map[string]any
}

func (e validationError) Error() string { return e.msg }

func badRequest(code, msg string) validationError {
	return validationError{status: http.StatusBadRequest, code: code, msg: msg}
}

type paramKind uint8

const (
	paramString paramKind = iota
	paramInt
)

// queryParam maps a query-string key onto a procedure parameter. An absent
// key binds def, or null when def is unset.
type queryParam struct {
	key      string
	name     string
	kind     paramKind
	required bool
	def      *gateway.Value
}

// bodyParam maps a JSON body key onto a procedure parameter. def supplies
// the value when the key is absent; a key sent as null stays null.
type bodyParam struct {
	key  string
	name string
	def  func(now time.Time) gateway.Value
}

func str(key, name string) queryParam { return queryParam{key: key, name: name} }

func integer(key, name string) queryParam {
	return queryParam{key: key, name: name, kind: paramInt}
}

func mandatory(p queryParam) queryParam {
	p.required = true
	return p
}

func withDefault(p queryParam, v gateway.Value) queryParam {
	p.def = &v
	return p
}

func field(key, name string) bodyParam { return bodyParam{key: key, name: name} }

func defaulted(key, name string, v gateway.Value) bodyParam {
	return bodyParam{key: key, name: name, def: func(time.Time) gateway.Value { return v }}
}

func bindQuery(q url.Values, params []queryParam, missing string) ([]gateway.Field, error) {
	fields := make([]gateway.Field, 0, len(params))
	for _, p := range params {
		raw, present := q[p.key]
		var s string
		if present && len(raw) > 0 {
			s = raw[0]
		}

		if p.required && s == "" {
			return nil, badRequest("MISSING_FIELDS", missing)
		}
		if !present {
			v := gateway.Null()
			if p.def != nil {
				v = *p.def
			}
			fields = append(fields, gateway.P(p.name, v))
			continue
		}

		switch p.kind {
		case paramInt:
			n, err := parseInt(p.key, s)
			if err != nil {
				return nil, err
			}
			fields = append(fields, gateway.P(p.name, gateway.Int(n)))
		default:
			fields = append(fields, gateway.P(p.name, gateway.String(s)))
		}
	}
	return fields, nil
}

func parseInt(key, s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, badRequest("INVALID_PARAMETER", fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}

// readBody decodes a single JSON object. An empty body or a literal null
// yields a nil map.
func readBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, bodyError(err)
	}
	if err := ensureEOF(dec); err != nil {
		return nil, bodyError(err)
	}
	return data, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return validationError{status: http.StatusRequestEntityTooLarge, code: "BODY_TOO_LARGE", msg: "Request body too large"}
	}
	return badRequest("INVALID_JSON", "Invalid JSON body")
}

func ensureEOF(dec *json.Decoder) error {
	var extra any
	if err := dec.Decode(&extra); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return errors.New("extra data")
}

func bindBody(data map[string]any, params []bodyParam, required []string, missing string, now time.Time) ([]gateway.Field, error) {
	var absent []string
	for _, key := range required {
		if _, ok := data[key]; !ok {
			absent = append(absent, key)
		}
	}
	if len(absent) > 0 {
		e := badRequest("MISSING_FIELDS", missing)
		e.details = map[string]any{"missing": absent}
		return nil, e
	}

	fields := make([]gateway.Field, 0, len(params))
	for _, p := range params {
		raw, ok := data[p.key]
		if !ok {
			v := gateway.Null()
			if p.def != nil {
				v = p.def(now)
			}
			fields = append(fields, gateway.P(p.name, v))
			continue
		}
		v, err := jsonValue(raw)
		if err != nil {
			return nil, badRequest("INVALID_FIELD", fmt.Sprintf("%s: %v", p.key, err))
		}
		fields = append(fields, gateway.P(p.name, v))
	}
	return fields, nil
}

// jsonValue converts a decoded JSON scalar. Integer literals bind as Int and
// other numbers as Decimal so money amounts keep their scale.
func jsonValue(v any) (gateway.Value, error) {
	switch t := v.(type) {
	case nil:
		return gateway.Null(), nil
	case bool:
		return gateway.Bool(t), nil
	case string:
		return gateway.String(t), nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return gateway.Int(n), nil
		}
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return gateway.Value{}, fmt.Errorf("invalid number %s", t)
		}
		return gateway.Decimal(d), nil
	case map[string]any, []any:
		return gateway.Value{}, errors.New("must be a scalar value")
	}
	return gateway.Value{}, fmt.Errorf("unsupported value %T", v)
}
