package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueDecodesResponseShapes(t *testing.T) {
	cases := []struct {
		raw  string
		want Value
	}{
		{`"Agree"`, TextValue("Agree")},
		{`4`, NumberValue(4)},
		{`["A", 2, null]`, ListValue("A", "2")},
		{`[]`, ListValue()},
		{`null`, Value{}},
	}
	for _, c := range cases {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(c.raw), &v), c.raw)
		assert.Equal(t, c.want, v, c.raw)
	}
}

func TestValueRejectsUnsupportedShapes(t *testing.T) {
	for _, raw := range []string{`true`, `{"a":1}`, `[["nested"]]`, `[false]`} {
		var v Value
		assert.Error(t, json.Unmarshal([]byte(raw), &v), raw)
	}
}

func TestValueEncodesVerbatim(t *testing.T) {
	var r Response
	require.NoError(t, json.Unmarshal([]byte(`{"question_id":"q1","value":["A","B"]}`), &r))
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"question_id":"q1","value":["A","B"]}`, string(b))

	b, err = json.Marshal(Response{QuestionID: "q2"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"question_id":"q2","value":null}`, string(b))
}

func TestValueEmptiness(t *testing.T) {
	assert.True(t, Value{}.IsEmpty())
	assert.True(t, TextValue("").IsEmpty())
	assert.True(t, ListValue().IsEmpty())
	assert.False(t, TextValue("  ").IsEmpty())
	assert.True(t, TextValue("  ").IsBlank())
	assert.False(t, NumberValue(0).IsEmpty())
	assert.False(t, ListValue("A").IsBlank())
}

func TestValueNumberCoercion(t *testing.T) {
	n, ok := TextValue(" 4 ").Number()
	assert.True(t, ok)
	assert.Equal(t, 4.0, n)

	n, ok = NumberValue(2.5).Number()
	assert.True(t, ok)
	assert.Equal(t, 2.5, n)

	for _, v := range []Value{TextValue("bad"), TextValue("NaN"), ListValue("3"), {}} {
		_, ok := v.Number()
		assert.False(t, ok, v.String())
	}
}

func TestValueLabelsAndString(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, ListValue("A", "B").Labels())
	assert.Equal(t, []string{"3"}, NumberValue(3).Labels())
	assert.Nil(t, Value{}.Labels())
	assert.Equal(t, "A; B", ListValue("A", "B").String())
	assert.Equal(t, "4.5", NumberValue(4.5).String())
}
