package matcher

import (
	"errors"
	"log/slog"

	"github.com/MeKo-Tech/fieldmark/internal/extractor"
	"github.com/MeKo-Tech/fieldmark/internal/fragment"
	"github.com/MeKo-Tech/fieldmark/internal/grouper"
	"github.com/MeKo-Tech/fieldmark/internal/mapping"
	"github.com/MeKo-Tech/fieldmark/internal/resolver"
)

// ErrNilTable is returned when a matching pass is started without a mapping
// table. A missing table is a caller contract violation, unlike malformed
// input data, which never produces an error.
var ErrNilTable = errors.New("mapping table is required")

// Config holds configuration for the matching pipeline and its components.
type Config struct {
	Grouper   grouper.Config   `mapstructure:"grouper" yaml:"grouper" json:"grouper"`
	Resolver  resolver.Config  `mapstructure:"resolver" yaml:"resolver" json:"resolver"`
	Extractor extractor.Config `mapstructure:"normalize" yaml:"normalize" json:"normalize"`
	// MinConfidence drops resolved fields below this confidence from the
	// output mapping. Zero keeps everything.
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
}

// DefaultConfig returns a default matcher config with component defaults.
func DefaultConfig() Config {
	return Config{
		Grouper:   grouper.DefaultConfig(),
		Resolver:  resolver.DefaultConfig(),
		Extractor: extractor.DefaultConfig(),
	}
}

// FieldDiagnostic describes how one output field was resolved.
type FieldDiagnostic struct {
	Strategy   resolver.MatchStrategy `json:"strategy"`
	Confidence float64                `json:"confidence"`
	RowIndex   int                    `json:"row_index"`
}

// Diagnostics is the per-pass diagnostic trail. It explains every gap so
// operators can tell "field absent from input" from "field present but
// corrupt" without re-running a capture.
type Diagnostics struct {
	Fields           map[string]FieldDiagnostic `json:"fields"`
	Unresolved       []string                   `json:"unresolved,omitempty"`
	Ambiguous        []resolver.Ambiguity       `json:"ambiguous,omitempty"`
	MalformedNumeric []string                   `json:"malformed_numeric,omitempty"`
	BelowConfidence  []string                   `json:"below_confidence,omitempty"`
	Fragments        int                        `json:"fragments"`
	Rows             int                        `json:"rows"`
}

// Result is the output of one matching pass: the field value mapping plus
// diagnostics held alongside it, so consumers that only want values read
// Fields and ignore the rest.
type Result struct {
	Fields      map[string]extractor.FieldValue `json:"fields"`
	Diagnostics Diagnostics                     `json:"diagnostics"`
}

// Matcher drives the full pipeline over one OCR result set. It holds no
// state between passes; a single instance is safe for concurrent use as
// long as each call gets an immutable table snapshot.
type Matcher struct {
	cfg       Config
	grouper   *grouper.Grouper
	resolver  *resolver.Resolver
	extractor *extractor.Extractor
}

// New creates a matcher from config.
func New(cfg Config) *Matcher {
	return &Matcher{
		cfg:       cfg,
		grouper:   grouper.New(cfg.Grouper),
		resolver:  resolver.New(cfg.Resolver),
		extractor: extractor.New(cfg.Extractor),
	}
}

// Match runs one pass: group fragments into rows, resolve labels, extract
// and normalize values, and assemble the field mapping. Failures are local;
// the pass always completes and returns whatever subset of fields it could
// resolve, which may be empty.
func (m *Matcher) Match(frags []fragment.Fragment, table *mapping.Table) (Result, error) {
	if table == nil {
		return Result{}, ErrNilTable
	}

	rows := m.grouper.Group(frags)
	resolved, ambiguities := m.resolver.Resolve(rows, table)

	result := Result{
		Fields: make(map[string]extractor.FieldValue),
		Diagnostics: Diagnostics{
			Fields:    make(map[string]FieldDiagnostic),
			Ambiguous: ambiguities,
			Fragments: len(frags),
			Rows:      len(rows),
		},
	}

	for _, rf := range resolved {
		fv, err := m.extractor.Extract(rf.Rule, rf.ValueFragments, rf.CapturedRaw)
		switch {
		case errors.Is(err, extractor.ErrMalformedNumber):
			result.Diagnostics.MalformedNumeric = append(result.Diagnostics.MalformedNumeric, rf.FieldKey)
			continue
		case err != nil:
			slog.Debug("No value extracted for resolved field",
				"field", rf.FieldKey, "strategy", rf.Strategy)
			continue
		}
		if m.cfg.MinConfidence > 0 && rf.Confidence < m.cfg.MinConfidence {
			result.Diagnostics.BelowConfidence = append(result.Diagnostics.BelowConfidence, rf.FieldKey)
			continue
		}
		result.Fields[rf.FieldKey] = fv
		result.Diagnostics.Fields[rf.FieldKey] = FieldDiagnostic{
			Strategy:   rf.Strategy,
			Confidence: rf.Confidence,
			RowIndex:   rf.RowIndex,
		}
	}

	for _, key := range table.FieldKeys() {
		if _, ok := result.Fields[key]; !ok {
			result.Diagnostics.Unresolved = append(result.Diagnostics.Unresolved, key)
		}
	}
	return result, nil
}
