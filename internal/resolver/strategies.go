package resolver

import (
	"strings"
	"unicode"

	"github.com/MeKo-Tech/fieldmark/internal/extractor"
	"github.com/MeKo-Tech/fieldmark/internal/mapping"
)

// exactStrategy fires when a single label fragment equals a configured
// label verbatim after canonicalization. A value glued onto the label
// ("位置波动（max）：123") still counts as exact: the text before the number
// must match on its own.
type exactStrategy struct{}

func (exactStrategy) Name() MatchStrategy { return StrategyExact }

func (exactStrategy) Attempt(rc *rowContext, table *mapping.Table, st *state) (*ResolvedField, bool) {
	if len(rc.labelFrags) != 1 {
		return nil, false
	}
	text := rc.labelFrags[0].Text

	if rule, ok := lookupUnresolved(table, st, mapping.Canonicalize(text)); ok {
		return &ResolvedField{
			FieldKey:       rule.FieldKey,
			Rule:           rule,
			LabelFragments: rc.labelFrags,
			ValueFragments: rc.valueFrags,
			Strategy:       StrategyExact,
			Confidence:     ConfidenceExact,
			RowIndex:       rc.index,
		}, true
	}

	if before, numeric, ok := extractor.SplitNumeric(text); ok {
		if rule, found := lookupUnresolved(table, st, mapping.Canonicalize(before)); found {
			return &ResolvedField{
				FieldKey:       rule.FieldKey,
				Rule:           rule,
				LabelFragments: rc.labelFrags,
				ValueFragments: rc.valueFrags,
				CapturedRaw:    numeric,
				Strategy:       StrategyExact,
				Confidence:     ConfidenceExact,
				RowIndex:       rc.index,
			}, true
		}
	}
	return nil, false
}

// crossFragmentStrategy reassembles a label that OCR split across multiple
// fragments in one row, then re-runs the exact lookup on the concatenation.
// The first numeric fragment marks the label/value boundary; a number glued
// onto the final label fragment is split off and carried as the value.
type crossFragmentStrategy struct{}

func (crossFragmentStrategy) Name() MatchStrategy { return StrategyCrossFragment }

func (crossFragmentStrategy) Attempt(rc *rowContext, table *mapping.Table, st *state) (*ResolvedField, bool) {
	if len(rc.labelFrags) < 2 {
		return nil, false
	}

	if rule, ok := lookupUnresolved(table, st, mapping.Canonicalize(rc.labelText)); ok {
		return &ResolvedField{
			FieldKey:       rule.FieldKey,
			Rule:           rule,
			LabelFragments: rc.labelFrags,
			ValueFragments: rc.valueFrags,
			Strategy:       StrategyCrossFragment,
			Confidence:     ConfidenceCrossFragment,
			RowIndex:       rc.index,
		}, true
	}

	if before, numeric, ok := extractor.SplitNumeric(rc.labelText); ok {
		if rule, found := lookupUnresolved(table, st, mapping.Canonicalize(before)); found {
			return &ResolvedField{
				FieldKey:       rule.FieldKey,
				Rule:           rule,
				LabelFragments: rc.labelFrags,
				ValueFragments: rc.valueFrags,
				CapturedRaw:    numeric,
				Strategy:       StrategyCrossFragment,
				Confidence:     ConfidenceCrossFragment,
				RowIndex:       rc.index,
			}, true
		}
	}
	return nil, false
}

// patternStrategy applies each rule's configured regular expressions to the
// row's concatenated text. The first rule (in declaration order) whose
// pattern matches wins. A group named "qualifier" must agree with the
// rule's qualifier; a group named "value" (or a sole unnamed group)
// captures the value directly.
type patternStrategy struct{}

func (patternStrategy) Name() MatchStrategy { return StrategyPattern }

func (patternStrategy) Attempt(rc *rowContext, table *mapping.Table, st *state) (*ResolvedField, bool) {
	for _, rule := range table.Rules() {
		if st.isResolved(rule.FieldKey) {
			continue
		}
		for _, re := range rule.Patterns {
			m := re.FindStringSubmatch(rc.rowText)
			if m == nil {
				continue
			}
			captured, qualifier := patternGroups(re.SubexpNames(), m)
			if qualifier != "" && !strings.EqualFold(qualifier, string(rule.Qualifier)) {
				continue
			}
			return &ResolvedField{
				FieldKey:       rule.FieldKey,
				Rule:           rule,
				LabelFragments: rc.labelFrags,
				ValueFragments: rc.scanFrags(),
				CapturedRaw:    captured,
				Strategy:       StrategyPattern,
				Confidence:     ConfidencePattern,
				RowIndex:       rc.index,
			}, true
		}
	}
	return nil, false
}

func patternGroups(names, matches []string) (captured, qualifier string) {
	for i := 1; i < len(matches); i++ {
		switch names[i] {
		case "value":
			captured = matches[i]
		case "qualifier":
			qualifier = matches[i]
		case "":
			if captured == "" {
				captured = matches[i]
			}
		}
	}
	return captured, qualifier
}

// fallbackKeywordStrategy handles rows whose label text OCR destroyed
// (typically CJK glyphs rendered as placeholder runs). It searches the row
// for an ASCII qualifier keyword and resolves only if exactly one
// unresolved rule carries that qualifier. Zero or multiple candidates mean
// no resolution; multiple candidates are recorded as an ambiguity.
type fallbackKeywordStrategy struct {
	keywords []string
}

func (fallbackKeywordStrategy) Name() MatchStrategy { return StrategyFallbackKeyword }

func (s fallbackKeywordStrategy) Attempt(rc *rowContext, table *mapping.Table, st *state) (*ResolvedField, bool) {
	if !labelUnreadable(rc.labelText) {
		return nil, false
	}

	rowLower := strings.ToLower(rc.rowText)
	for _, kw := range s.keywords {
		if !strings.Contains(rowLower, strings.ToLower(kw)) {
			continue
		}
		candidates := st.unresolvedWithQualifier(mapping.Qualifier(strings.ToLower(kw)))
		switch len(candidates) {
		case 1:
			rule := candidates[0]
			return &ResolvedField{
				FieldKey:       rule.FieldKey,
				Rule:           rule,
				LabelFragments: rc.labelFrags,
				ValueFragments: rc.scanFrags(),
				Strategy:       StrategyFallbackKeyword,
				Confidence:     ConfidenceFallbackKeyword,
				RowIndex:       rc.index,
			}, true
		case 0:
			return nil, false
		default:
			keys := make([]string, len(candidates))
			for i, c := range candidates {
				keys[i] = c.FieldKey
			}
			st.recordAmbiguity(Ambiguity{RowIndex: rc.index, Keyword: kw, Candidates: keys})
			return nil, false
		}
	}
	return nil, false
}

// labelUnreadable reports whether label text is chiefly non-alphanumeric
// placeholder characters, the signature of OCR failing on glyphs outside
// its dictionary.
func labelUnreadable(label string) bool {
	total, word := 0, 0
	for _, r := range label {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word++
		}
	}
	if total == 0 {
		return false
	}
	return float64(word)/float64(total) < 0.3
}

// positionalStrategy is the last resort: a row that still carries a numeric
// value is paired with the next unresolved field in declaration order.
// Rows without a value fragment never consume a field this way, so headers
// and decorations cannot steal a position.
type positionalStrategy struct{}

func (positionalStrategy) Name() MatchStrategy { return StrategyPositional }

func (positionalStrategy) Attempt(rc *rowContext, table *mapping.Table, st *state) (*ResolvedField, bool) {
	if !rc.hasValue() {
		return nil, false
	}
	rule := st.firstUnresolved()
	if rule == nil {
		return nil, false
	}
	return &ResolvedField{
		FieldKey:       rule.FieldKey,
		Rule:           rule,
		LabelFragments: rc.labelFrags,
		ValueFragments: rc.valueFrags,
		Strategy:       StrategyPositional,
		Confidence:     ConfidencePositional,
		RowIndex:       rc.index,
	}, true
}

// lookupUnresolved finds the rule for a canonical label, skipping rules a
// previous row already claimed.
func lookupUnresolved(table *mapping.Table, st *state, canonical string) (*mapping.Rule, bool) {
	rule, ok := table.LookupLabel(canonical)
	if !ok || st.isResolved(rule.FieldKey) {
		return nil, false
	}
	return rule, true
}
