package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	var v struct {
		Name  string  `json:"name"`
		Count float64 `json:"count"`
	}
	require.NoError(t, ParseJSON(`{"name": "milk", "count": 2}`, &v))
	assert.Equal(t, "milk", v.Name)
	assert.Equal(t, 2.0, v.Count)
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	var v map[string]interface{}
	err := ParseJSON(`{"a": 1} {"b": 2}`, &v)
	require.Error(t, err)
}

func TestParseJSONStrictUnknownField(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	assert.NoError(t, ParseJSON(`{"name": "x", "extra": true}`, &v))
	assert.Error(t, ParseJSONStrict(`{"name": "x", "extra": true}`, &v))
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"無圍欄", `{"a": 1}`, `{"a": 1}`},
		{"json 圍欄", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"一般圍欄", "```\n[1, 2]\n```", `[1, 2]`},
		{"前後空白", "  ```json\n[]\n```  ", `[]`},
		{"只有開頭圍欄", "```json\n{\"a\": 1}", `{"a": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFence(tc.in))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	raw := "Here are the items:\n```json\n[{\"name\": \"egg\"}]\n```\nHope that helps!"
	assert.Equal(t, `[{"name": "egg"}]`, ExtractJSONArray(raw))

	// 找不到陣列時原樣返回
	assert.Equal(t, "no array here", ExtractJSONArray("no array here"))
}

func TestExtractJSONObject(t *testing.T) {
	raw := "Sure! {\"cuisine\": \"Thai\"} Enjoy."
	assert.Equal(t, `{"cuisine": "Thai"}`, ExtractJSONObject(raw))
}

func TestQuoteJSONKeys(t *testing.T) {
	assert.Equal(t, `{"name": "x", "count": 2}`, QuoteJSONKeys(`{name: "x", count: 2}`))
	// 已加引號的鍵不動
	assert.Equal(t, `{"name": "x"}`, QuoteJSONKeys(`{"name": "x"}`))
	// 字串值內的冒號不受影響
	assert.Equal(t, `{"note": "ratio 1:2"}`, QuoteJSONKeys(`{"note": "ratio 1:2"}`))
}

func TestToJSONRoundTrip(t *testing.T) {
	s, err := ToJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, s)
}
