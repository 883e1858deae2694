package resolver

import (
	"strings"

	"github.com/MeKo-Tech/fieldmark/internal/extractor"
	"github.com/MeKo-Tech/fieldmark/internal/fragment"
	"github.com/MeKo-Tech/fieldmark/internal/mapping"
)

// Config contains label resolution settings.
type Config struct {
	// FallbackKeywords are the ASCII qualifier keywords searched for when a
	// label is unreadable, in priority order.
	FallbackKeywords []string `mapstructure:"fallback_keywords" yaml:"fallback_keywords" json:"fallback_keywords"`
	// DisablePositional turns off last-resort positional inference.
	DisablePositional bool `mapstructure:"disable_positional" yaml:"disable_positional" json:"disable_positional"`
}

// DefaultConfig returns default resolver settings.
func DefaultConfig() Config {
	return Config{
		FallbackKeywords: []string{"max", "min", "avg"},
	}
}

// Strategy is one pure label-resolution attempt. Strategies are tried in
// fixed priority order per row; the first success wins.
type Strategy interface {
	Name() MatchStrategy
	Attempt(row *rowContext, table *mapping.Table, st *state) (*ResolvedField, bool)
}

// Resolver maps fragment rows to configured fields.
type Resolver struct {
	cfg        Config
	strategies []Strategy
}

// New creates a resolver with the standard strategy chain: exact,
// cross-fragment reassembly, pattern, fallback keyword, and (unless
// disabled) positional inference.
func New(cfg Config) *Resolver {
	if len(cfg.FallbackKeywords) == 0 {
		cfg.FallbackKeywords = DefaultConfig().FallbackKeywords
	}
	r := &Resolver{cfg: cfg}
	r.strategies = []Strategy{
		exactStrategy{},
		crossFragmentStrategy{},
		patternStrategy{},
		fallbackKeywordStrategy{keywords: cfg.FallbackKeywords},
	}
	if !cfg.DisablePositional {
		r.strategies = append(r.strategies, positionalStrategy{})
	}
	return r
}

// Resolve maps each row to at most one resolved field, in reading order.
// A row no strategy claims is silently dropped. The second return value
// lists fallback-keyword ambiguities for diagnostics.
func (r *Resolver) Resolve(rows [][]fragment.Fragment, table *mapping.Table) ([]ResolvedField, []Ambiguity) {
	st := newState(table)
	var resolved []ResolvedField

	for i, row := range rows {
		rc := newRowContext(i, row)
		for _, strat := range r.strategies {
			rf, ok := strat.Attempt(rc, table, st)
			if !ok {
				continue
			}
			st.markResolved(rf.FieldKey)
			resolved = append(resolved, *rf)
			break
		}
	}
	return resolved, st.ambiguities
}

// rowContext carries the per-row derived data the strategies share.
type rowContext struct {
	index int
	frags []fragment.Fragment

	// labelFrags are the fragments before the first numeric fragment;
	// valueFrags are that fragment and everything after it. When no
	// fragment is numeric the whole row is treated as label text.
	labelFrags []fragment.Fragment
	valueFrags []fragment.Fragment

	labelText string // label fragment texts joined in reading order
	rowText   string // all fragment texts joined with spaces
}

func newRowContext(index int, frags []fragment.Fragment) *rowContext {
	rc := &rowContext{index: index, frags: frags}

	boundary := len(frags)
	for i, f := range frags {
		if extractor.IsNumericFragment(f.Text) {
			boundary = i
			break
		}
	}
	rc.labelFrags = frags[:boundary]
	rc.valueFrags = frags[boundary:]

	labelParts := make([]string, len(rc.labelFrags))
	rowParts := make([]string, len(frags))
	for i, f := range rc.labelFrags {
		labelParts[i] = f.Text
	}
	for i, f := range frags {
		rowParts[i] = f.Text
	}
	rc.labelText = strings.Join(labelParts, "")
	rc.rowText = strings.Join(rowParts, " ")
	return rc
}

// hasValue reports whether the row has a numeric value fragment.
func (rc *rowContext) hasValue() bool { return len(rc.valueFrags) > 0 }

// scanFrags returns the fragments the extractor should scan for a value:
// the value fragments when the boundary was found, otherwise the whole row.
func (rc *rowContext) scanFrags() []fragment.Fragment {
	if len(rc.valueFrags) > 0 {
		return rc.valueFrags
	}
	return rc.frags
}

// state tracks which fields are already resolved during one pass, so later
// rows and fuzzier strategies only consider the remaining candidates.
type state struct {
	table       *mapping.Table
	resolved    map[string]struct{}
	ambiguities []Ambiguity
}

func newState(table *mapping.Table) *state {
	return &state{
		table:    table,
		resolved: make(map[string]struct{}),
	}
}

func (st *state) isResolved(fieldKey string) bool {
	_, ok := st.resolved[fieldKey]
	return ok
}

func (st *state) markResolved(fieldKey string) {
	st.resolved[fieldKey] = struct{}{}
}

// firstUnresolved returns the first rule in declaration order that has not
// been resolved yet.
func (st *state) firstUnresolved() *mapping.Rule {
	for _, r := range st.table.Rules() {
		if !st.isResolved(r.FieldKey) {
			return r
		}
	}
	return nil
}

// unresolvedWithQualifier returns unresolved rules carrying the qualifier.
func (st *state) unresolvedWithQualifier(q mapping.Qualifier) []*mapping.Rule {
	var out []*mapping.Rule
	for _, r := range st.table.RulesWithQualifier(q) {
		if !st.isResolved(r.FieldKey) {
			out = append(out, r)
		}
	}
	return out
}

func (st *state) recordAmbiguity(a Ambiguity) {
	st.ambiguities = append(st.ambiguities, a)
}
