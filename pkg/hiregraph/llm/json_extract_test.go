package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_RawObject(t *testing.T) {
	out, err := ExtractJSON(`{"a": 1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, out)
}

func TestExtractJSON_ObjectInProse(t *testing.T) {
	out, err := ExtractJSON(`Sure, here you go: {"score": 75, "reason": "solid"} — hope that helps.`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": 75, "reason": "solid"}`, out)
}

func TestExtractJSON_FencedWithTag(t *testing.T) {
	out, err := ExtractJSON("```json\n{\"ok\": true}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": true}`, out)
}

func TestExtractJSON_FencedWithoutTag(t *testing.T) {
	out, err := ExtractJSON("```\n[1, 2, 3]\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2, 3]`, out)
}

func TestExtractJSON_SkipsNonJSONFence(t *testing.T) {
	input := "```python\nprint('hi')\n```\n\n{\"value\": 9}"
	out, err := ExtractJSON(input)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value": 9}`, out)
}

func TestExtractJSON_Array(t *testing.T) {
	out, err := ExtractJSON(`The findings are ["gap in 2021", "no cloud experience"].`)
	require.NoError(t, err)
	assert.JSONEq(t, `["gap in 2021", "no cloud experience"]`, out)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("plain prose with no structure at all")
	assert.Error(t, err)
}

func TestExtractJSON_MalformedOnly(t *testing.T) {
	_, err := ExtractJSON(`{"unterminated": `)
	assert.Error(t, err)
}
