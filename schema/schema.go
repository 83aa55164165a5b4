// Package schema models tool input schemas as a closed sum type and builds
// them from declarative field sets.
//
// A Node is exactly one of Primitive, Object or Array. Composite nodes own
// their children; trees are built once and never mutated afterwards.
package schema

import (
	"encoding/json"
	"fmt"
)

// JSON Schema type names used by Field.Type.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
	TypeNull    = "null"
)

// Node is a rendered schema node: one of Primitive, Object or Array.
type Node interface {
	json.Marshaler
	isNode()
}

// Primitive is a leaf node.
type Primitive struct {
	Type        string
	Description string
	Enum        []any
	Default     any
}

// Object is a node with named properties.
type Object struct {
	Description string
	Enum        []any
	Default     any
	Properties  map[string]Node
	// Required lists property names in declaration order. Every entry is a
	// key of Properties.
	Required []string
}

// Array is a node whose items share one schema.
type Array struct {
	Description string
	Default     any
	Items       Node
}

func (Primitive) isNode() {}
func (*Object) isNode()   {}
func (*Array) isNode()    {}

type primitiveJSON struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Default     any    `json:"default,omitempty"`
}

type objectJSON struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Enum        []any           `json:"enum,omitempty"`
	Default     any             `json:"default,omitempty"`
	Properties  map[string]Node `json:"properties"`
	Required    []string        `json:"required,omitempty"`
}

type arrayJSON struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Items       Node   `json:"items,omitempty"`
}

func (p Primitive) MarshalJSON() ([]byte, error) {
	return json.Marshal(primitiveJSON(p))
}

func (o *Object) MarshalJSON() ([]byte, error) {
	props := o.Properties
	if props == nil {
		props = map[string]Node{}
	}
	return json.Marshal(objectJSON{
		Type:        TypeObject,
		Description: o.Description,
		Enum:        o.Enum,
		Default:     o.Default,
		Properties:  props,
		Required:    o.Required,
	})
}

func (a *Array) MarshalJSON() ([]byte, error) {
	return json.Marshal(arrayJSON{
		Type:        TypeArray,
		Description: a.Description,
		Default:     a.Default,
		Items:       a.Items,
	})
}

// Depth returns the nesting depth of n. A Primitive has depth 1.
func Depth(n Node) int {
	switch v := n.(type) {
	case Primitive:
		return 1
	case *Object:
		deepest := 0
		for _, child := range v.Properties {
			if d := Depth(child); d > deepest {
				deepest = d
			}
		}
		return deepest + 1
	case *Array:
		if v.Items == nil {
			return 1
		}
		return Depth(v.Items) + 1
	default:
		panic(fmt.Sprintf("schema: unknown node type %T", n))
	}
}
