package schema

import (
	"errors"
	"fmt"
)

// Field declares one named input. Object fields may carry a nested field set
// and array fields an item declaration; both nest without limit.
type Field struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Enum        []any
	Default     any
	// Fields is the nested field set of an object field.
	Fields []Field
	// Items declares the element schema of an array field. Its Name and
	// Required are ignored.
	Items *Field
}

// ArgName and IsRequired let a Field take part in required-argument checks.
func (f Field) ArgName() string  { return f.Name }
func (f Field) IsRequired() bool { return f.Required }

// FormatSchema renders a field set into the root object schema. Required
// holds the names of required fields in declaration order. When a name is
// declared twice the first declaration wins; Validate reports the duplicate.
func FormatSchema(fields []Field) *Object {
	obj := &Object{Properties: make(map[string]Node, len(fields))}
	for _, f := range fields {
		if _, dup := obj.Properties[f.Name]; dup {
			continue
		}
		obj.Properties[f.Name] = FormatField(f)
		if f.Required {
			obj.Required = append(obj.Required, f.Name)
		}
	}
	return obj
}

// FormatField renders one field. Object fields with a nested field set become
// an Object node, array fields with an item declaration become an Array node,
// and everything else is a Primitive.
func FormatField(f Field) Node {
	switch {
	case f.Type == TypeObject && len(f.Fields) > 0:
		obj := FormatSchema(f.Fields)
		obj.Description = f.Description
		obj.Enum = f.Enum
		obj.Default = f.Default
		return obj
	case f.Type == TypeArray && f.Items != nil:
		return &Array{
			Description: f.Description,
			Default:     f.Default,
			Items:       FormatField(*f.Items),
		}
	default:
		return Primitive{
			Type:        f.Type,
			Description: f.Description,
			Enum:        f.Enum,
			Default:     f.Default,
		}
	}
}

var (
	// ErrEmptyFieldName is reported for a field without a name.
	ErrEmptyFieldName = errors.New("field name is required")
	// ErrDuplicateField is reported when a name repeats within one field set.
	ErrDuplicateField = errors.New("duplicate field name")
	// ErrUnknownFieldType is reported for a type outside the JSON Schema core types.
	ErrUnknownFieldType = errors.New("unknown field type")
)

// Validate checks a field set recursively and returns every problem found,
// joined. Paths in messages use dots for nesting and [] for array items.
func Validate(fields []Field) error {
	return errors.Join(validate("", fields)...)
}

func validate(prefix string, fields []Field) []error {
	var errs []error
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		path := prefix + f.Name
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("%q: %w", prefix, ErrEmptyFieldName))
		} else if _, dup := seen[f.Name]; dup {
			errs = append(errs, fmt.Errorf("%q: %w", path, ErrDuplicateField))
		}
		seen[f.Name] = struct{}{}
		errs = append(errs, validateType(path, f)...)
		errs = append(errs, validate(path+".", f.Fields)...)
	}
	return errs
}

func validateType(path string, f Field) []error {
	switch f.Type {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeNull:
	case TypeArray:
		if f.Items != nil {
			item := *f.Items
			item.Name = ""
			errs := validateType(path+"[]", item)
			return append(errs, validate(path+"[].", item.Fields)...)
		}
	default:
		return []error{fmt.Errorf("%q: %w %q", path, ErrUnknownFieldType, f.Type)}
	}
	return nil
}
