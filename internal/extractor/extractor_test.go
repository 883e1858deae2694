package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/fieldmark/internal/fragment"
	"github.com/MeKo-Tech/fieldmark/internal/mapping"
)

func numberRule(t *testing.T, key string) *mapping.Rule {
	t.Helper()
	table, err := mapping.NewTable([]mapping.RuleConfig{{BaseLabel: "label", FieldKey: key}})
	require.NoError(t, err)
	return table.Rules()[0]
}

func textRule(t *testing.T, key string) *mapping.Rule {
	t.Helper()
	table, err := mapping.NewTable([]mapping.RuleConfig{{BaseLabel: "label", FieldKey: key, Kind: "text"}})
	require.NoError(t, err)
	return table.Rules()[0]
}

func frags(texts ...string) []fragment.Fragment {
	out := make([]fragment.Fragment, len(texts))
	for i, s := range texts {
		out[i] = fragment.Fragment{Text: s, Box: fragment.Box{X: float64(i) * 50, Width: 40, Height: 10}}
	}
	return out
}

func TestFindNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"152", "152", true},
		{"45.7", "45.7", true},
		{"-178", "-178", true},
		{"(min): -178", "-178", true},
		{"152rpm", "152", true},
		{"v1.2.3", "1.2", true},
		{"no digits", "", false},
	}
	for _, tt := range tests {
		got, ok := FindNumeric(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestIsNumericFragment(t *testing.T) {
	assert.True(t, IsNumericFragment("152"))
	assert.True(t, IsNumericFragment(" -178 "))
	assert.True(t, IsNumericFragment("45.7rpm"))
	assert.False(t, IsNumericFragment("(max): 152"))
	assert.False(t, IsNumericFragment("位置波动"))
	assert.False(t, IsNumericFragment(""))
}

func TestSplitNumeric(t *testing.T) {
	before, num, ok := SplitNumeric("位置波动(max):123")
	require.True(t, ok)
	assert.Equal(t, "位置波动(max):", before)
	assert.Equal(t, "123", num)

	_, _, ok = SplitNumeric("no value here")
	assert.False(t, ok)
}

func TestExtract_TypePreservation(t *testing.T) {
	e := New(Config{UseAbsoluteValue: false})
	rule := numberRule(t, "k")

	fv, err := e.Extract(rule, frags("152"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(152), fv.Value)
	assert.True(t, fv.IsNumeric)
	assert.Equal(t, SignPositive, fv.Sign)

	fv, err = e.Extract(rule, frags("45.7"), "")
	require.NoError(t, err)
	assert.Equal(t, 45.7, fv.Value)
}

func TestExtract_SignPolicy(t *testing.T) {
	rule := numberRule(t, "k")

	// Absolute-value policy on: magnitude, positive sign, type preserved.
	fv, err := New(Config{UseAbsoluteValue: true}).Extract(rule, frags("-178"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(178), fv.Value)
	assert.Equal(t, SignPositive, fv.Sign)
	assert.Equal(t, "-178", fv.Raw)

	// Policy off: sign preserved in value and Sign field.
	fv, err = New(Config{UseAbsoluteValue: false}).Extract(rule, frags("-178"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(-178), fv.Value)
	assert.Equal(t, SignNegative, fv.Sign)

	// Negative decimals keep their float type under the absolute policy.
	fv, err = New(Config{UseAbsoluteValue: true}).Extract(rule, frags("-4.25"), "")
	require.NoError(t, err)
	assert.Equal(t, 4.25, fv.Value)
}

func TestExtract_GluedUnits(t *testing.T) {
	e := New(DefaultConfig())
	fv, err := e.Extract(numberRule(t, "k"), frags("606.537rpm"), "")
	require.NoError(t, err)
	assert.Equal(t, 606.537, fv.Value)
	assert.Equal(t, "606.537", fv.Raw)
}

func TestExtract_ScansPastNonNumericFragments(t *testing.T) {
	e := New(DefaultConfig())
	fv, err := e.Extract(numberRule(t, "k"), frags("(min):", "-178"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(178), fv.Value)
}

func TestExtract_CapturedRawWins(t *testing.T) {
	e := New(DefaultConfig())
	fv, err := e.Extract(numberRule(t, "k"), frags("999"), "152")
	require.NoError(t, err)
	assert.Equal(t, int64(152), fv.Value)

	// Captured text with glue is reduced to its numeric token.
	fv, err = e.Extract(numberRule(t, "k"), nil, ": 45.7rpm")
	require.NoError(t, err)
	assert.Equal(t, 45.7, fv.Value)
}

func TestExtract_NoValue(t *testing.T) {
	e := New(DefaultConfig())
	_, err := e.Extract(numberRule(t, "k"), frags("no", "numbers"), "")
	assert.ErrorIs(t, err, ErrNoValue)

	_, err = e.Extract(numberRule(t, "k"), nil, "")
	assert.ErrorIs(t, err, ErrNoValue)
}

func TestExtract_MalformedNumber(t *testing.T) {
	e := New(DefaultConfig())
	// Overflows int64: located but unparsable, reported distinctly from absence.
	_, err := e.Extract(numberRule(t, "k"), frags("99999999999999999999999"), "")
	assert.ErrorIs(t, err, ErrMalformedNumber)
}

func TestExtract_TextKind(t *testing.T) {
	e := New(DefaultConfig())
	fv, err := e.Extract(textRule(t, "status"), frags("：", "正常"), "")
	require.NoError(t, err)
	assert.False(t, fv.IsNumeric)
	assert.Equal(t, "正常", fv.Value)

	_, err = e.Extract(textRule(t, "status"), nil, "")
	assert.ErrorIs(t, err, ErrNoValue)
}
