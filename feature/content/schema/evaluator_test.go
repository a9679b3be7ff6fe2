package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Literals(t *testing.T) {
	src := `{
		_id: "abc",
		'quoted key': 'single',
		"double": "a\"b",
		count: -3.5,
		big: 1e3,
		ok: true,
		nope: false,
		empty: null,
		missing: undefined,
		list: [1, "two", [3],],
		tmpl: ` + "`plain`" + `,
		// comment
		nested: { deep: { x: 1 } }, /* trailing */
	}`

	v, err := Evaluate(src, DefaultRegistry())
	require.NoError(t, err)

	obj := v.(map[string]any)
	assert.Equal(t, "abc", obj["_id"])
	assert.Equal(t, "single", obj["quoted key"])
	assert.Equal(t, `a"b`, obj["double"])
	assert.Equal(t, -3.5, obj["count"])
	assert.Equal(t, float64(1000), obj["big"])
	assert.Equal(t, true, obj["ok"])
	assert.Equal(t, false, obj["nope"])
	assert.Nil(t, obj["empty"])
	assert.Contains(t, obj, "missing")
	assert.Equal(t, []any{float64(1), "two", []any{float64(3)}}, obj["list"])
	assert.Equal(t, "plain", obj["tmpl"])
	assert.Equal(t, map[string]any{"deep": map[string]any{"x": float64(1)}}, obj["nested"])
}

func TestEvaluate_WidgetCalls(t *testing.T) {
	src := `{ fields: [ widgets.Input({ label: "Title", required: true }), RichText({ label: "Body" }), Seo() ] }`

	v, err := Evaluate(src, DefaultRegistry())
	require.NoError(t, err)

	fields := v.(map[string]any)["fields"].([]any)
	require.Len(t, fields, 3)
	assert.Equal(t, map[string]any{"widget": "Input", "label": "Title", "required": true}, fields[0])
	assert.Equal(t, "RichText", fields[1].(map[string]any)["widget"])
	assert.Equal(t, map[string]any{"widget": "Seo"}, fields[2])
}

func TestEvaluate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"Unknown Identifier", `{ a: process }`},
		{"Unknown Constructor", `{ a: require("fs") }`},
		{"Deep Namespace", `{ a: globalThis.widgets.Input({}) }`},
		{"Template Substitution", "{ a: `${secret}` }"},
		{"Missing Comma", `{ a: 1 b: 2 }`},
		{"Trailing Garbage", `{ a: 1 } extra`},
		{"Bad Widget Arg", `{ a: Input("x") }`},
		{"Unterminated String", `{ a: "x }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.src, DefaultRegistry())
			assert.Error(t, err)
		})
	}
}

func TestRegistry_Custom(t *testing.T) {
	r := Registry{}
	r.Register("Custom", func(args []any) (any, error) {
		return map[string]any{"widget": "Custom", "argc": len(args)}, nil
	})

	v, err := Evaluate(`[Custom(1, 2)]`, r)
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"widget": "Custom", "argc": 2}}, v)

	_, err = Evaluate(`[Input({})]`, r)
	assert.Error(t, err)
}
