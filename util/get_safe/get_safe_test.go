package getsafe

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   int
		wantOk bool
	}{
		{name: "int", value: 3, want: 3, wantOk: true},
		{name: "integral float", value: 3.0, want: 3, wantOk: true},
		{name: "fractional float", value: 3.5},
		{name: "json number", value: json.Number("7"), want: 7, wantOk: true},
		{name: "large integral float", value: float64(1 << 53), want: 1 << 53, wantOk: true},
		{name: "float above max int", value: 1e19},
		{name: "float below min int", value: -1e19},
		{name: "huge float", value: 1e300},
		{name: "infinity", value: math.Inf(1)},
		{name: "nan", value: math.NaN()},
		{name: "json number overflow", value: json.Number("99999999999999999999")},
		{name: "string", value: "3"},
		{name: "nil", value: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Int(map[string]any{"k": tt.value}, "k")
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := Int(map[string]any{}, "k")
	assert.False(t, ok)
}

func TestFloat(t *testing.T) {
	got, ok := Float(map[string]any{"k": 0.25}, "k")
	assert.True(t, ok)
	assert.Equal(t, 0.25, got)

	got, ok = Float(map[string]any{"k": 2}, "k")
	assert.True(t, ok)
	assert.Equal(t, 2.0, got)

	_, ok = Float(map[string]any{"k": "0.25"}, "k")
	assert.False(t, ok)
}

func TestBoolAndSlice(t *testing.T) {
	payload := map[string]any{
		"flag":  true,
		"steps": []any{map[string]any{"step": 1.0}},
		"name":  "x",
	}

	b, ok := Bool(payload, "flag")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = Bool(payload, "name")
	assert.False(t, ok)

	s, ok := Slice(payload, "steps")
	assert.True(t, ok)
	assert.Len(t, s, 1)

	_, ok = Slice(payload, "name")
	assert.False(t, ok)

	assert.Equal(t, "x", String(payload, "name"))
	assert.Equal(t, "", String(payload, "flag"))
}
