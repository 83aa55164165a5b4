package uritemplate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// MissingVariableError reports a path variable with no value.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("uritemplate: missing variable %q", e.Name)
}

// PrefixTooShortError reports a value shorter than its declared prefix length.
type PrefixTooShortError struct {
	Name   string
	Length int
	Value  string
}

func (e *PrefixTooShortError) Error() string {
	return fmt.Sprintf("uritemplate: value %q for %q is shorter than prefix length %d", e.Value, e.Name, e.Length)
}

// Interpolate expands the template with vars. Path variables are required;
// query variables are included only when present.
func (t *Template) Interpolate(vars map[string]any) (string, error) {
	parts := make([]string, 0, len(t.segments))
	for _, seg := range t.segments {
		switch s := seg.(type) {
		case Literal:
			parts = append(parts, string(s))
		case Variable:
			v, ok := lookup(vars, s.Name)
			if !ok {
				return "", &MissingVariableError{Name: s.Name}
			}
			parts = append(parts, v)
		case PrefixVariable:
			v, ok := lookup(vars, s.Name)
			if !ok {
				return "", &MissingVariableError{Name: s.Name}
			}
			if len(v) < s.Length {
				return "", &PrefixTooShortError{Name: s.Name, Length: s.Length, Value: v}
			}
			parts = append(parts, v[:s.Length])
		}
	}

	var b strings.Builder
	if t.leadingSlash {
		b.WriteByte('/')
	}
	b.WriteString(strings.Join(parts, "/"))

	if t.query != nil {
		var pairs []string
		for _, name := range t.query.Names {
			if v, ok := lookup(vars, name); ok {
				pairs = append(pairs, url.QueryEscape(name)+"="+url.QueryEscape(v))
			}
		}
		if len(pairs) > 0 {
			b.WriteByte('?')
			b.WriteString(strings.Join(pairs, "&"))
		}
	}

	return b.String(), nil
}

func lookup(vars map[string]any, name string) (string, bool) {
	v, ok := vars[name]
	if !ok || v == nil {
		return "", false
	}
	return Stringify(v), true
}

// Stringify renders a variable value the way Interpolate does.
func Stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
