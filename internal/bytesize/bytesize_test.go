package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  ByteSize
	}{
		{"0", 0},
		{"1024", 1024},
		{"134217728", 128 * MiB},
		{"1Ki", KiB},
		{"1KiB", KiB},
		{"128Mi", 128 * MiB},
		{"128MiB", 128 * MiB},
		{"1Gi", GiB},
		{"2Ti", 2 * TiB},
		{"1K", KB},
		{"100MB", 100 * MB},
		{"1.5Gi", ByteSize(1.5 * float64(GiB))},
		{"  64Mi  ", 64 * MiB},
		{"1gib", GiB},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "Mi", "12XB", "-1Ki", "1.2.3Mi", "abc"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("128Mi")))
	assert.Equal(t, 128*MiB, b)

	assert.Error(t, b.UnmarshalText([]byte("nope")))
}

func TestString(t *testing.T) {
	tests := []struct {
		size ByteSize
		want string
	}{
		{128 * MiB, "128Mi"},
		{GiB, "1Gi"},
		{KiB, "1Ki"},
		{2 * TiB, "2Ti"},
		{1000, "1000"},
		{0, "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.size.String())
	}
}

func TestRoundTrip(t *testing.T) {
	orig := 128 * MiB
	text, err := orig.MarshalText()
	require.NoError(t, err)

	var parsed ByteSize
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, orig, parsed)
}
