package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Field is one named value of a Record or Binding.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered name→value mapping. Field order is insertion order;
// setting an existing name replaces its value in place.
type Record struct {
	fields []Field
}

func NewRecord(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

func (r *Record) Set(name string, v Value) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = v
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

func (r Record) Get(name string) (Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

func (r Record) Len() int { return len(r.fields) }

// Names returns the field names in order.
func (r Record) Names() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Name
	}
	return out
}

func (r Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// MarshalJSON writes the fields as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ResultSet is the rows of one result set in database order.
type ResultSet []Record

// Binding is the ordered set of named parameters of a procedure call.
type Binding struct {
	Record
}

// Bind builds a Binding from fields; later duplicates replace earlier ones.
func Bind(fields ...Field) Binding {
	var b Binding
	for _, f := range fields {
		b.Set(f.Name, f.Value)
	}
	return b
}

// Set binds name to v. Names are compared without the @ sigil, so @X and X
// are the same parameter; the first spelling keeps its position.
func (b *Binding) Set(name string, v Value) {
	key := paramName(name)
	for i := range b.fields {
		if paramName(b.fields[i].Name) == key {
			b.fields[i].Value = v
			return
		}
	}
	b.fields = append(b.fields, Field{Name: name, Value: v})
}

// Get looks a parameter up with or without its sigil.
func (b Binding) Get(name string) (Value, bool) {
	key := paramName(name)
	for _, f := range b.fields {
		if paramName(f.Name) == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// P is shorthand for a binding field.
func P(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// paramName strips the @ sigil SQL Server uses for parameter names.
func paramName(name string) string {
	return strings.TrimPrefix(name, "@")
}

// IsOutputParam reports whether a parameter name follows the New<Name>Id
// convention for OUTPUT parameters.
func IsOutputParam(name string) bool {
	name = paramName(name)
	return strings.HasPrefix(name, "New") && strings.HasSuffix(name, "Id")
}

// OutputKey is the key an OUTPUT parameter is reported under: the name
// without its sigil and New prefix, so NewPropertyId becomes PropertyId.
func OutputKey(name string) string {
	return strings.TrimPrefix(paramName(name), "New")
}
