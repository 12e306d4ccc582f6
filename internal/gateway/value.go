package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindBool
	KindTime
	KindLocalTime
	KindDate
	KindBytes
)

var kindNames = [...]string{
	KindNull:      "null",
	KindInt:       "int",
	KindFloat:     "float",
	KindDecimal:   "decimal",
	KindString:    "string",
	KindBool:      "bool",
	KindTime:      "time",
	KindLocalTime: "localtime",
	KindDate:      "date",
	KindBytes:     "bytes",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// localTimeLayout renders wall-clock values that carry no offset.
const localTimeLayout = "2006-01-02T15:04:05.9999999"

// Value is a nullable scalar exchanged with the database. The zero Value is
// null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	d    decimal.Decimal
	s    string
	b    bool
	t    time.Time
	date civil.Date
	raw  []byte
}

func Null() Value { return Value{} }

func Int(v int64) Value { return Value{kind: KindInt, i: v} }

func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

func Decimal(v decimal.Decimal) Value { return Value{kind: KindDecimal, d: v} }

func String(v string) Value { return Value{kind: KindString, s: v} }

func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Time holds an instant with its offset (datetimeoffset).
func Time(v time.Time) Value { return Value{kind: KindTime, t: v} }

// LocalTime holds a wall-clock reading without offset (datetime, datetime2,
// date, time columns). It serializes without a zone designator.
func LocalTime(v time.Time) Value { return Value{kind: KindLocalTime, t: v} }

// Date binds a calendar date parameter.
func Date(v civil.Date) Value { return Value{kind: KindDate, date: v} }

func Bytes(v []byte) Value {
	if v == nil {
		return Null()
	}
	return Value{kind: KindBytes, raw: append([]byte(nil), v...)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int64() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) Float64() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) DecimalValue() (decimal.Decimal, bool) { return v.d, v.kind == KindDecimal }

func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

func (v Value) BoolValue() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) TimeValue() (time.Time, bool) {
	return v.t, v.kind == KindTime || v.kind == KindLocalTime
}

func (v Value) DateValue() (civil.Date, bool) { return v.date, v.kind == KindDate }

func (v Value) BytesValue() ([]byte, bool) { return v.raw, v.kind == KindBytes }

// Equal reports whether both values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindDecimal:
		return v.d.Equal(o.d)
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindTime, KindLocalTime:
		return v.t.Equal(o.t)
	case KindDate:
		return v.date == o.date
	case KindBytes:
		return string(v.raw) == string(o.raw)
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDecimal:
		return decimalText(v.d)
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindLocalTime:
		return v.t.Format(localTimeLayout)
	case KindDate:
		return v.date.String()
	case KindBytes:
		return fmt.Sprintf("0x%X", v.raw)
	}
	return ""
}

// arg converts v into a database/sql argument.
func (v Value) arg() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindDecimal:
		return v.d
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindTime, KindLocalTime:
		return v.t
	case KindDate:
		return v.date
	case KindBytes:
		return v.raw
	}
	return nil
}

// MarshalJSON renders the JSON literal for v. Decimals are emitted as bare
// numbers keeping their scale.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		return json.Marshal(v.f)
	case KindDecimal:
		return []byte(decimalText(v.d)), nil
	case KindString:
		return json.Marshal(v.s)
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case KindLocalTime:
		return json.Marshal(v.t.Format(localTimeLayout))
	case KindDate:
		return json.Marshal(v.date.String())
	case KindBytes:
		return json.Marshal(v.raw)
	}
	return nil, fmt.Errorf("gateway: cannot marshal value of kind %s", v.kind)
}

func decimalText(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
