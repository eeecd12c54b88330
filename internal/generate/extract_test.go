package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"leading prose", `Sure! Here it is: {"a": 1}`, `{"a": 1}`},
		{"trailing prose", `{"a": 1} Let me know if you need more.`, `{"a": 1}`},
		{"markdown fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"nested", `x {"a": {"b": [1, {"c": 2}]}} y`, `{"a": {"b": [1, {"c": 2}]}}`},
		{"brace in string", `{"q": "use } and { freely"}`, `{"q": "use } and { freely"}`},
		{"escaped quote", `{"q": "he said \"}\" loudly"}`, `{"q": "he said \"}\" loudly"}`},
		{"first of two", `{"a": 1} {"b": 2}`, `{"a": 1}`},
		{"unclosed then closed", `{"a": 1 ... {"b": 2}`, `{"b": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractObject_NoObject(t *testing.T) {
	for _, input := range []string{"", "no braces here", "} backwards {", `{"never": "closed"`} {
		_, err := ExtractObject(input)
		assert.ErrorIs(t, err, ErrNoObject, "input %q", input)
	}
}

func TestDecodeObject_Stages(t *testing.T) {
	var v map[string]any

	err := decodeObject("nothing", &v)
	assert.ErrorIs(t, err, ErrNoObject)

	err = decodeObject(`{"a": 1,}`, &v)
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.NotErrorIs(t, err, ErrNoObject)

	require.NoError(t, decodeObject(`ok {"a": 1}`, &v))
	assert.Equal(t, float64(1), v["a"])
}

func TestFlexNumbers(t *testing.T) {
	var v struct {
		I flexInt   `json:"i"`
		F flexFloat `json:"f"`
	}

	require.NoError(t, decodeObject(`{"i": "12", "f": 0.5}`, &v))
	assert.Equal(t, flexInt{Value: 12, Set: true}, v.I)
	assert.Equal(t, flexFloat{Value: 0.5, Set: true}, v.F)

	v.I, v.F = flexInt{}, flexFloat{}
	require.NoError(t, decodeObject(`{"i": null, "f": "six"}`, &v))
	assert.False(t, v.I.Set)
	assert.False(t, v.F.Set)

	err := decodeObject(`{"i": [1]}`, &v)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
