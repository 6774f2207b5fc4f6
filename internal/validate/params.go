package validate

import (
	"sort"
	"strconv"

	fnerrors "github.com/onchain-formulas/internal/errors"
)

// Params is a named argument set
type Params map[string]any

// Clone returns a shallow copy
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Has reports whether name is set
func (p Params) Has(name string) bool {
	v, ok := p[name]
	return ok && !isEmpty(v)
}

// String returns a parameter as a string, or "" when absent
func (p Params) String(name string) string {
	v, ok := p[name]
	if !ok {
		return ""
	}
	return toString(v)
}

// Int returns a numeric parameter, or 0 when absent or not numeric
func (p Params) Int(name string) int64 {
	v, ok := p[name]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	}
	f, ok := toNumber(v)
	if !ok {
		return 0
	}
	return int64(f)
}

// IntString returns a numeric parameter formatted for a query string
func (p Params) IntString(name string) string {
	return strconv.FormatInt(p.Int(name), 10)
}

// Discriminated selects a sub-schema by the value of one field
type Discriminated struct {
	Field string
	Cases map[string]*Schema
	// Order fixes FieldNames when cases declare different argument names
	Order []string
}

// NewDiscriminated creates a Discriminated validator keyed on field
func NewDiscriminated(field string, cases map[string]*Schema, order ...string) *Discriminated {
	return &Discriminated{Field: field, Cases: cases, Order: order}
}

// FieldNames returns the positional argument order
func (d *Discriminated) FieldNames() []string {
	if len(d.Order) > 0 {
		return d.Order
	}
	keys := make([]string, 0, len(d.Cases))
	for k := range d.Cases {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return []string{d.Field}
	}
	sort.Strings(keys)
	return d.Cases[keys[0]].FieldNames()
}

// Validate implements Validator
func (d *Discriminated) Validate(p Params) (Params, error) {
	for _, s := range d.Cases {
		if err := checkPageLimits(s.Fields, p); err != nil {
			return nil, err
		}
	}

	if !p.Has(d.Field) {
		return nil, fnerrors.NewMissingParamError(d.Field)
	}
	key := p.String(d.Field)
	schema, ok := d.Cases[key]
	if !ok {
		return nil, fnerrors.NewInvalidParamError(d.Field, p[d.Field])
	}
	return schema.Validate(p)
}
