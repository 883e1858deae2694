package resolver

import (
	"github.com/MeKo-Tech/fieldmark/internal/fragment"
	"github.com/MeKo-Tech/fieldmark/internal/mapping"
)

// MatchStrategy identifies which resolution strategy produced a field.
type MatchStrategy string

const (
	StrategyExact           MatchStrategy = "exact"
	StrategyCrossFragment   MatchStrategy = "cross_fragment"
	StrategyPattern         MatchStrategy = "pattern"
	StrategyFallbackKeyword MatchStrategy = "fallback_keyword"
	StrategyPositional      MatchStrategy = "positional"
)

// Per-strategy confidence. Fuzzier strategies score lower so callers can
// threshold for quality control.
const (
	ConfidenceExact           = 1.0
	ConfidenceCrossFragment   = 0.9
	ConfidencePattern         = 0.85
	ConfidenceFallbackKeyword = 0.6
	ConfidencePositional      = 0.3
)

// ResolvedField ties one row to one configured rule. It is created here and
// consumed by the value extractor; not mutated after creation.
type ResolvedField struct {
	FieldKey       string
	Rule           *mapping.Rule
	LabelFragments []fragment.Fragment
	ValueFragments []fragment.Fragment
	// CapturedRaw holds a value already captured during label resolution
	// (a glued "label:123" split or a pattern group); empty otherwise.
	CapturedRaw string
	Strategy    MatchStrategy
	Confidence  float64
	RowIndex    int
}

// Ambiguity records a fallback keyword that matched more than one candidate
// rule. No guess is made; the row stays unresolved and the conflict is
// surfaced in diagnostics.
type Ambiguity struct {
	RowIndex   int      `json:"row_index"`
	Keyword    string   `json:"keyword"`
	Candidates []string `json:"candidates"`
}
