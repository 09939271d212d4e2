package statement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmountCents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw   string
		style NumberStyle
		want  int64
	}{
		{"1,234.56", StyleDot, 123456},
		{"1.234,56", StyleComma, 123456},
		{"-150,25", StyleComma, -15025},
		{"R$ 1.234,56", StyleComma, 123456},
		{"$ 45.00", StyleDot, 4500},
		{"(45.00)", StyleDot, -4500},
		{"45.00-", StyleDot, -4500},
		{"+10.00", StyleDot, 1000},
		{"2500", StyleDot, 250000},
		{"0,00", StyleComma, 0},
		// unknown style resolves from the cell itself
		{"12,34", StyleUnknown, 1234},
		{"1.234,56", StyleUnknown, 123456},
		{"12.34", StyleUnknown, 1234},
	}
	for _, tc := range cases {
		got, err := ParseAmountCents(tc.raw, tc.style)
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, got, tc.raw)
	}
}

func TestParseAmountCents_Rejects(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "n/a", "---", "pending"} {
		_, err := ParseAmountCents(raw, StyleDot)
		require.Error(t, err, raw)
	}
}

func TestDetectNumberStyle(t *testing.T) {
	t.Parallel()

	require.Equal(t, StyleComma, DetectNumberStyle([]string{"1.234,56", "-150,25"}))
	require.Equal(t, StyleDot, DetectNumberStyle([]string{"1,234.56", "45.00"}))
	require.Equal(t, StyleUnknown, DetectNumberStyle([]string{"2500", "1300"}))
	// a comma followed by three digits is grouping, not decimals
	require.Equal(t, StyleDot, DetectNumberStyle([]string{"1,500", "45.00"}))
	require.Equal(t, StyleComma, DetectNumberStyle([]string{"45,00", "1.234,56", "12.00"}))
}
