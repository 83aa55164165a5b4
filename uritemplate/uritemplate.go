// Package uritemplate parses, expands and matches the resource address
// patterns used by templated resources.
//
// The supported grammar is deliberately small. A template is a '/'-separated
// path whose segments are literals, ":name" or "{name}" variables, or
// "{name:N}" prefix variables, optionally followed by a trailing query
// expression "{?a,b}":
//
//	https://example.com/users/{id}
//	/users/:id/posts/{post}
//	/shards/{key:2}{?verbose}
//
// Matching binds raw strings; values are never coerced.
package uritemplate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Segment is one parsed element of a template: Literal, Variable,
// PrefixVariable or QuerySet.
type Segment interface {
	isSegment()
}

// Literal must appear verbatim. It may be empty for internal "//" runs.
type Literal string

// Variable binds a whole path segment.
type Variable struct {
	Name string
}

// PrefixVariable binds a path segment of exactly Length characters and
// expands to the first Length characters of its value.
type PrefixVariable struct {
	Name   string
	Length int
}

// QuerySet is the trailing "{?a,b}" expression. Every name is optional.
type QuerySet struct {
	Names []string
}

func (Literal) isSegment()        {}
func (Variable) isSegment()       {}
func (PrefixVariable) isSegment() {}
func (QuerySet) isSegment()       {}

// Template is a parsed address pattern. It is immutable and safe for
// concurrent use.
type Template struct {
	raw          string
	segments     []Segment
	query        *QuerySet
	vars         []string
	leadingSlash bool
}

// ErrInvalidTemplate is wrapped by Parse failures.
var ErrInvalidTemplate = errors.New("invalid uri template")

// Parse parses a template string.
func Parse(template string) (*Template, error) {
	t := &Template{raw: template}

	path := template
	if i := strings.LastIndex(path, "{?"); i >= 0 && strings.HasSuffix(path, "}") {
		names, err := parseQueryNames(path[i+2 : len(path)-1])
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidTemplate, template, err)
		}
		t.query = &QuerySet{Names: names}
		path = path[:i]
	}

	t.leadingSlash = strings.HasPrefix(path, "/")
	seen := make(map[string]struct{})
	for _, part := range splitPath(path) {
		seg, err := classify(part)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidTemplate, template, err)
		}
		if name := variableName(seg); name != "" {
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w %q: variable %q appears more than once", ErrInvalidTemplate, template, name)
			}
			seen[name] = struct{}{}
			t.vars = append(t.vars, name)
		}
		t.segments = append(t.segments, seg)
	}
	if t.query != nil {
		for _, name := range t.query.Names {
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w %q: variable %q appears more than once", ErrInvalidTemplate, template, name)
			}
			seen[name] = struct{}{}
			t.vars = append(t.vars, name)
		}
	}

	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(template string) *Template {
	t, err := Parse(template)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the raw template.
func (t *Template) String() string { return t.raw }

// Segments returns the parsed path segments followed by the query set, if any.
func (t *Template) Segments() []Segment {
	out := make([]Segment, 0, len(t.segments)+1)
	out = append(out, t.segments...)
	if t.query != nil {
		out = append(out, *t.query)
	}
	return out
}

// Vars returns the variable names: path variables in order, then query
// variables.
func (t *Template) Vars() []string {
	return append([]string(nil), t.vars...)
}

// IsTemplated reports whether the template declares at least one variable.
func (t *Template) IsTemplated() bool { return len(t.vars) > 0 }

// splitPath splits on '/' and trims leading and trailing empty segments,
// keeping internal ones.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	start, end := 0, len(parts)
	for start < end && parts[start] == "" {
		start++
	}
	for end > start && parts[end-1] == "" {
		end--
	}
	return parts[start:end]
}

func classify(part string) (Segment, error) {
	switch {
	case len(part) > 1 && part[0] == ':':
		return Variable{Name: part[1:]}, nil
	case len(part) > 2 && part[0] == '{' && part[len(part)-1] == '}':
		inner := part[1 : len(part)-1]
		name, length, hasLength := strings.Cut(inner, ":")
		if name == "" || strings.ContainsAny(name, "{}?") {
			return nil, fmt.Errorf("malformed expression %q", part)
		}
		if !hasLength {
			return Variable{Name: name}, nil
		}
		n, err := strconv.Atoi(length)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("prefix length in %q must be a positive integer", part)
		}
		return PrefixVariable{Name: name, Length: n}, nil
	default:
		return Literal(part), nil
	}
}

func parseQueryNames(list string) ([]string, error) {
	var names []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.New("empty query variable name")
		}
		names = append(names, name)
	}
	return names, nil
}

func variableName(seg Segment) string {
	switch s := seg.(type) {
	case Variable:
		return s.Name
	case PrefixVariable:
		return s.Name
	default:
		return ""
	}
}
