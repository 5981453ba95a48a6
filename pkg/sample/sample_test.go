package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemSize(t *testing.T) {
	tests := []struct {
		typ  Type
		size int
	}{
		{Complex64, 8},
		{Float32, 4},
		{Int32, 4},
		{Int16, 2},
		{Int8, 1},
		{Type(99), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.size, tt.typ.ItemSize(), "%v", tt.typ)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		// Legacy flowgraph names
		{"complex", Complex64},
		{"float", Float32},
		{"int", Int32},
		{"short", Int16},
		{"byte", Int8},
		// Go type names
		{"complex64", Complex64},
		{"float32", Float32},
		{"int32", Int32},
		{"int16", Int16},
		{"int8", Int8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Parse("double")
	assert.Error(t, err)
}

func TestTextRoundTrip(t *testing.T) {
	for _, typ := range []Type{Complex64, Float32, Int32, Int16, Int8} {
		text, err := typ.MarshalText()
		require.NoError(t, err)

		var parsed Type
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, typ, parsed)
	}

	_, err := Type(99).MarshalText()
	assert.Error(t, err)
}
