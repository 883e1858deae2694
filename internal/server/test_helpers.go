package server

import (
	"github.com/MeKo-Tech/fieldmark/internal/mapping"
	"github.com/MeKo-Tech/fieldmark/internal/matcher"
)

// newTestServer builds a server around an in-memory mapping table.
func newTestServer(rules []mapping.RuleConfig) *Server {
	table, err := mapping.NewTable(rules)
	if err != nil {
		panic(err)
	}

	return &Server{
		store:      mapping.NewStore(table),
		matcher:    matcher.New(matcher.DefaultConfig()),
		corsOrigin: "*",
		maxBodyMB:  10,
		timeoutSec: 30,
	}
}

// testRules returns a small mapping table used across handler tests.
func testRules() []mapping.RuleConfig {
	return []mapping.RuleConfig{
		{BaseLabel: "平均速度", FieldKey: "avg_speed"},
		{BaseLabel: "位置波动", Qualifier: "max", FieldKey: "position_deviation_max"},
		{BaseLabel: "位置波动", Qualifier: "min", FieldKey: "position_deviation_min"},
	}
}
