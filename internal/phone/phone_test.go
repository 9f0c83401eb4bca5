package phone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer("pk")

	tests := []struct {
		in   string
		want string
	}{
		{"+92 301 2345678", "+923012345678"},
		{"0301-2345678", "+923012345678"},
		{"(0301) 234 5678", "+923012345678"},
		{"0092 301 2345678", "+923012345678"},
		{"+44 7400 123456", "+447400123456"},
		{"+1 201-555-0123", "+12015550123"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := n.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer("IL")
	for _, in := range []string{"050-234-5678", "+972 50 234 5678", "+44 7400 123456"} {
		once, err := n.Normalize(in)
		require.NoError(t, err)
		twice, err := n.Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, in)
	}
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	n := NewNormalizer("PK")
	for _, in := range []string{"", "   ", "12345", "not a number", "+92 12"} {
		_, err := n.Normalize(in)
		assert.True(t, errors.Is(err, ErrInvalid), "%q: %v", in, err)
	}
}

func TestDisplayAndDigits(t *testing.T) {
	n := NewNormalizer("PK")
	assert.Equal(t, "+92 301 2345678", n.Display("03012345678"))
	assert.Equal(t, "garbage", n.Display("garbage"))

	d, err := n.Digits("0301 2345678")
	require.NoError(t, err)
	assert.Equal(t, "923012345678", d)
}
