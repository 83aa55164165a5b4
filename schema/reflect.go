package schema

import (
	"slices"

	"github.com/invopop/jsonschema"
)

// FieldsFor derives a field set from the exported fields of struct type T
// using its json and jsonschema struct tags. Non-object types yield an empty
// set.
func FieldsFor[T any]() []Field {
	r := &jsonschema.Reflector{
		DoNotReference: true, // inline defs
		ExpandedStruct: true, // put struct at root
	}
	s := r.Reflect(new(T))
	if s == nil || s.Type != TypeObject {
		return nil
	}
	return fieldsFromSchema(s)
}

func fieldsFromSchema(s *jsonschema.Schema) []Field {
	if s.Properties == nil {
		return nil
	}
	var fields []Field
	for el := s.Properties.Oldest(); el != nil; el = el.Next() {
		f := fieldFromSchema(el.Value)
		f.Name = el.Key
		f.Required = slices.Contains(s.Required, el.Key)
		fields = append(fields, f)
	}
	return fields
}

func fieldFromSchema(s *jsonschema.Schema) Field {
	if s == nil {
		return Field{}
	}
	f := Field{
		Type:        s.Type,
		Description: s.Description,
		Default:     s.Default,
	}
	if len(s.Enum) > 0 {
		f.Enum = s.Enum
	}
	switch s.Type {
	case TypeObject:
		f.Fields = fieldsFromSchema(s)
	case TypeArray:
		if s.Items != nil {
			item := fieldFromSchema(s.Items)
			f.Items = &item
		}
	case "":
		// Interfaces and maps reflect without a type; treat them as free-form objects.
		f.Type = TypeObject
	}
	return f
}
