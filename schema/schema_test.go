package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggoodman/mcp-runtime-go/schema"
)

func TestFormatSchema_NestedRequiredObject(t *testing.T) {
	fields := []schema.Field{
		{
			Name:     "address",
			Type:     schema.TypeObject,
			Required: true,
			Fields: []schema.Field{
				{Name: "street", Type: schema.TypeString, Required: true},
				{Name: "city", Type: schema.TypeString, Required: true},
			},
		},
	}

	root := schema.FormatSchema(fields)
	require.Equal(t, []string{"address"}, root.Required)

	addr, ok := root.Properties["address"].(*schema.Object)
	require.True(t, ok, "expected object node, got %T", root.Properties["address"])
	assert.Len(t, addr.Properties, 2)
	assert.Contains(t, addr.Properties, "street")
	assert.Contains(t, addr.Properties, "city")
	assert.ElementsMatch(t, []string{"city", "street"}, addr.Required)
}

func TestFormatField(t *testing.T) {
	tests := []struct {
		name  string
		field schema.Field
		want  string
	}{
		{
			name:  "primitive omits absent attributes",
			field: schema.Field{Name: "q", Type: schema.TypeString},
			want:  `{"type":"string"}`,
		},
		{
			name:  "primitive with enum and default",
			field: schema.Field{Name: "unit", Type: schema.TypeString, Description: "unit", Enum: []any{"c", "f"}, Default: "c"},
			want:  `{"type":"string","description":"unit","enum":["c","f"],"default":"c"}`,
		},
		{
			name:  "object without nested fields stays primitive",
			field: schema.Field{Name: "opts", Type: schema.TypeObject},
			want:  `{"type":"object"}`,
		},
		{
			name:  "array with simple item",
			field: schema.Field{Name: "tags", Type: schema.TypeArray, Items: &schema.Field{Type: schema.TypeString}},
			want:  `{"type":"array","items":{"type":"string"}}`,
		},
		{
			name: "array of objects",
			field: schema.Field{Name: "people", Type: schema.TypeArray, Items: &schema.Field{
				Type:   schema.TypeObject,
				Fields: []schema.Field{{Name: "name", Type: schema.TypeString, Required: true}},
			}},
			want: `{"type":"array","items":{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}}`,
		},
		{
			name: "array of arrays",
			field: schema.Field{Name: "grid", Type: schema.TypeArray, Items: &schema.Field{
				Type:  schema.TypeArray,
				Items: &schema.Field{Type: schema.TypeInteger},
			}},
			want: `{"type":"array","items":{"type":"array","items":{"type":"integer"}}}`,
		},
		{
			name: "object carries its own description",
			field: schema.Field{Name: "cfg", Type: schema.TypeObject, Description: "config", Fields: []schema.Field{
				{Name: "debug", Type: schema.TypeBoolean, Default: false},
			}},
			want: `{"type":"object","description":"config","properties":{"debug":{"type":"boolean","default":false}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(schema.FormatField(tt.field))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestFormatSchema_EmptyFieldSet(t *testing.T) {
	b, err := json.Marshal(schema.FormatSchema(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(b))
}

func TestDepth(t *testing.T) {
	n := schema.FormatField(schema.Field{Name: "a", Type: schema.TypeArray, Items: &schema.Field{
		Type:   schema.TypeObject,
		Fields: []schema.Field{{Name: "b", Type: schema.TypeString}},
	}})
	assert.Equal(t, 3, schema.Depth(n))
}

func TestValidate(t *testing.T) {
	err := schema.Validate([]schema.Field{
		{Name: "a", Type: schema.TypeString},
		{Name: "a", Type: schema.TypeString},
		{Name: "", Type: schema.TypeString},
		{Name: "c", Type: "text"},
		{Name: "d", Type: schema.TypeArray, Items: &schema.Field{Type: "blob"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrDuplicateField)
	assert.ErrorIs(t, err, schema.ErrEmptyFieldName)
	assert.ErrorIs(t, err, schema.ErrUnknownFieldType)
	assert.Contains(t, err.Error(), `"d[]"`)

	assert.NoError(t, schema.Validate([]schema.Field{{Name: "ok", Type: schema.TypeNumber}}))
}

func TestFieldsFor(t *testing.T) {
	type point struct {
		X int `json:"x" jsonschema:"description=horizontal"`
		Y int `json:"y,omitempty"`
	}
	type args struct {
		Label  string   `json:"label" jsonschema:"enum=a,enum=b"`
		Tags   []string `json:"tags,omitempty"`
		Origin point    `json:"origin"`
	}

	fields := schema.FieldsFor[args]()
	require.Len(t, fields, 3)

	assert.Equal(t, "label", fields[0].Name)
	assert.Equal(t, schema.TypeString, fields[0].Type)
	assert.True(t, fields[0].Required)
	assert.Equal(t, []any{"a", "b"}, fields[0].Enum)

	assert.Equal(t, "tags", fields[1].Name)
	assert.False(t, fields[1].Required)
	require.NotNil(t, fields[1].Items)
	assert.Equal(t, schema.TypeString, fields[1].Items.Type)

	origin := fields[2]
	require.Len(t, origin.Fields, 2)
	assert.Equal(t, "horizontal", origin.Fields[0].Description)
	assert.True(t, origin.Fields[0].Required)
	assert.False(t, origin.Fields[1].Required)
}
