// Package validate checks and coerces the positional arguments of a formula function
// against a declarative schema.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/types"
)

// FieldType is the primitive type of an argument
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeEnum
	TypeDateOrTimestamp
	TypeAddress
)

func (t FieldType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeEnum:
		return "enum"
	case TypeDateOrTimestamp:
		return "date"
	case TypeAddress:
		return "address"
	default:
		return "string"
	}
}

// Field describes one argument
type Field struct {
	Name     string
	Required bool
	Type     FieldType
	Enum     []string
	// Min and Max bound numeric fields when non-nil
	Min *float64
	Max *float64
	// PageLimit marks paging fields capped at types.MaxPageLimit
	PageLimit bool
	// Signed allows negative numbers
	Signed  bool
	Default any
	Pattern *regexp.Regexp
}

// Bound returns a pointer to v, for Field.Min and Field.Max
func Bound(v float64) *float64 {
	return &v
}

// Refinement is a cross-field check run after every per-field check passes
type Refinement func(Params) error

// Validator checks a parameter set
type Validator interface {
	Validate(Params) (Params, error)
	FieldNames() []string
}

// Schema is the declarative argument list of one function
type Schema struct {
	Function    string
	Fields      []Field
	Refinements []Refinement
}

// FieldNames returns the declared argument order
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Bind maps positional arguments onto field names in declared order
func Bind(v Validator, args []any) Params {
	names := v.FieldNames()
	p := make(Params, len(names))
	for i, name := range names {
		if i < len(args) {
			p[name] = args[i]
		}
	}
	return p
}

// Validate checks p and returns a coerced copy with defaults applied.
// Page ceilings are checked over all fields first, then fields in declared order, then refinements.
func (s *Schema) Validate(p Params) (Params, error) {
	if err := checkPageLimits(s.Fields, p); err != nil {
		return nil, err
	}

	out := p.Clone()
	for _, f := range s.Fields {
		raw, present := out[f.Name]
		if !present || isEmpty(raw) {
			if f.Required {
				return nil, fnerrors.NewMissingParamError(f.Name)
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			} else {
				delete(out, f.Name)
			}
			continue
		}

		v, err := coerce(f, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}

	for _, refine := range s.Refinements {
		if err := refine(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func checkPageLimits(fields []Field, p Params) error {
	for _, f := range fields {
		if !f.PageLimit {
			continue
		}
		raw, ok := p[f.Name]
		if !ok || isEmpty(raw) {
			continue
		}
		if n, ok := toNumber(raw); ok && n > types.MaxPageLimit {
			return fnerrors.NewMaxPageLimitError()
		}
	}
	return nil
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func coerce(f Field, raw any) (any, error) {
	switch f.Type {
	case TypeNumber:
		n, ok := toNumber(raw)
		if !ok || math.IsNaN(n) {
			return nil, fnerrors.NewInvalidParamError(f.Name, raw)
		}
		if n < 0 && !f.Signed {
			return nil, fnerrors.NewInvalidParamErrorf(f.Name, raw, "%s must not be negative", f.Name)
		}
		if f.Min != nil && n < *f.Min {
			return nil, fnerrors.NewInvalidParamErrorf(f.Name, raw, "%s must be at least %v", f.Name, *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return nil, fnerrors.NewInvalidParamErrorf(f.Name, raw, "%s must be at most %v", f.Name, *f.Max)
		}
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n), nil
		}
		return n, nil

	case TypeEnum:
		s := strings.TrimSpace(toString(raw))
		for _, allowed := range f.Enum {
			if s == allowed {
				return s, nil
			}
		}
		return nil, fnerrors.NewInvalidParamError(f.Name, raw)

	case TypeDateOrTimestamp:
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return nil, fnerrors.NewInvalidParamErrorf(f.Name, raw, "expected MM/DD/YYYY or a UNIX timestamp")
		}
		return ts, nil

	case TypeAddress:
		s := strings.TrimSpace(toString(raw))
		if !IsAddress(s) {
			return nil, fnerrors.NewInvalidAddressError(s)
		}
		return s, nil

	default:
		s := strings.TrimSpace(toString(raw))
		if f.Pattern != nil && !f.Pattern.MatchString(s) {
			return nil, fnerrors.NewInvalidParamError(f.Name, raw)
		}
		return s, nil
	}
}

// IsAddress reports whether s is 0x followed by 40 hex characters
func IsAddress(s string) bool {
	return len(s) == 42 && strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

const dateLayout = "01/02/2006"

// ParseTimestamp converts MM/DD/YYYY (UTC midnight), an integer string or a number to UNIX seconds
func ParseTimestamp(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case time.Time:
		return t.Unix(), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, fmt.Errorf("empty timestamp")
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		if d, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
			return d.Unix(), nil
		}
		// tolerate single-digit month/day
		if d, err := time.ParseInLocation("1/2/2006", s, time.UTC); err == nil {
			return d.Unix(), nil
		}
		return 0, fmt.Errorf("unrecognized timestamp %q", s)
	default:
		return 0, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
