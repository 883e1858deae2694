package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Speed", "speed"},
		{"whitespace and colon", "  平均速度 (rpm): ", "平均速度(rpm)"},
		{"fullwidth punctuation", "位置波动（max）：", "位置波动(max)"},
		{"case folding", "Max Speed (RPM)", "maxspeed(rpm)"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestNewTable_Compile(t *testing.T) {
	table, err := NewTable([]RuleConfig{
		{BaseLabel: "平均速度 (rpm)", FieldKey: "avg_speed"},
		{BaseLabel: "位置波动", Qualifier: "max", FieldKey: "position_deviation_max"},
		{BaseLabel: "位置波动", Qualifier: "min", FieldKey: "position_deviation_min"},
		{BaseLabel: "状态", FieldKey: "status", Kind: "text"},
	})
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())

	r, ok := table.LookupLabel("平均速度(rpm)")
	require.True(t, ok)
	assert.Equal(t, "avg_speed", r.FieldKey)
	assert.Equal(t, QualifierNone, r.Qualifier)
	assert.True(t, r.IsNumeric())

	r, ok = table.LookupLabel("位置波动(max)")
	require.True(t, ok)
	assert.Equal(t, "position_deviation_max", r.FieldKey)

	// A bare base label does not resolve to a qualified variant.
	_, ok = table.LookupLabel("位置波动")
	assert.False(t, ok)

	r, ok = table.LookupLabel("状态")
	require.True(t, ok)
	assert.False(t, r.IsNumeric())
}

func TestNewTable_VariantGroup(t *testing.T) {
	table, err := NewTable([]RuleConfig{
		{BaseLabel: "位置波动", Qualifier: "max", FieldKey: "dev_max"},
		{BaseLabel: "位置波动", Qualifier: "min", FieldKey: "dev_min"},
		{BaseLabel: "速度偏差", FieldKey: "speed_dev"},
	})
	require.NoError(t, err)

	group := table.VariantGroup("位置波动")
	require.Len(t, group, 2)
	assert.Equal(t, "dev_max", group[0].FieldKey)
	assert.Equal(t, "dev_min", group[1].FieldKey)

	mins := table.RulesWithQualifier(QualifierMin)
	require.Len(t, mins, 1)
	assert.Equal(t, "dev_min", mins[0].FieldKey)
}

func TestNewTable_DuplicateLastWriteWins(t *testing.T) {
	table, err := NewTable([]RuleConfig{
		{BaseLabel: "位置波动", Qualifier: "max", FieldKey: "old_key"},
		{BaseLabel: "速度偏差", FieldKey: "speed_dev"},
		{BaseLabel: "位置波动", Qualifier: "max", FieldKey: "new_key"},
	})
	require.NoError(t, err)

	// The duplicate replaced the original rule but kept its position.
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"new_key", "speed_dev"}, table.FieldKeys())

	r, ok := table.LookupLabel("位置波动(max)")
	require.True(t, ok)
	assert.Equal(t, "new_key", r.FieldKey)
}

func TestNewTable_DuplicateAcrossBaseLabels(t *testing.T) {
	// "位置波动 (max)" with no qualifier and "位置波动" with qualifier max
	// canonicalize to the same label; the replacement must move to the
	// shorter base's variant group.
	table, err := NewTable([]RuleConfig{
		{BaseLabel: "位置波动 (max)", FieldKey: "old_key"},
		{BaseLabel: "位置波动", Qualifier: "max", FieldKey: "new_key"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	r, ok := table.LookupLabel("位置波动(max)")
	require.True(t, ok)
	assert.Equal(t, "new_key", r.FieldKey)
	assert.Equal(t, "位置波动", r.CanonicalBase())

	group := table.VariantGroup("位置波动")
	require.Len(t, group, 1)
	assert.Equal(t, "new_key", group[0].FieldKey)
	assert.Empty(t, table.VariantGroup("位置波动(max)"))
}

func TestNewTable_Errors(t *testing.T) {
	_, err := NewTable([]RuleConfig{{BaseLabel: "", FieldKey: "k"}})
	assert.Error(t, err)

	_, err = NewTable([]RuleConfig{{BaseLabel: "label", FieldKey: ""}})
	assert.Error(t, err)

	_, err = NewTable([]RuleConfig{{BaseLabel: "label", FieldKey: "k", Patterns: []string{"("}}})
	assert.Error(t, err)

	_, err = NewTable([]RuleConfig{{BaseLabel: "label", FieldKey: "k", Kind: "boolean"}})
	assert.Error(t, err)
}

func TestNewTable_Empty(t *testing.T) {
	table, err := NewTable(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.FieldKeys())
}

func TestQualifierNoneAlias(t *testing.T) {
	table, err := NewTable([]RuleConfig{{BaseLabel: "速度", Qualifier: "none", FieldKey: "speed"}})
	require.NoError(t, err)
	r, ok := table.LookupLabel("速度")
	require.True(t, ok)
	assert.Equal(t, QualifierNone, r.Qualifier)
}
