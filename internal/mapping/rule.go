package mapping

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Qualifier distinguishes variants of the same base label, e.g. the
// parenthesized max/min suffix on "位置波动 (max)" vs "位置波动 (min)".
type Qualifier string

const (
	QualifierNone Qualifier = ""
	QualifierMax  Qualifier = "max"
	QualifierMin  Qualifier = "min"
	QualifierAvg  Qualifier = "avg"
)

// Kind declares the value type a rule produces.
type Kind string

const (
	KindNumber Kind = "number"
	KindText   Kind = "text"
)

// RuleConfig is the on-disk form of a field rule.
type RuleConfig struct {
	BaseLabel string   `mapstructure:"base_label" yaml:"base_label" json:"base_label"`
	Qualifier string   `mapstructure:"qualifier" yaml:"qualifier,omitempty" json:"qualifier,omitempty"`
	FieldKey  string   `mapstructure:"field_key" yaml:"field_key" json:"field_key"`
	Patterns  []string `mapstructure:"patterns" yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Kind      string   `mapstructure:"kind" yaml:"kind,omitempty" json:"kind,omitempty"`
}

// Rule is one compiled (label text -> field key) mapping rule.
type Rule struct {
	BaseLabel string
	Qualifier Qualifier
	FieldKey  string
	Kind      Kind
	Patterns  []*regexp.Regexp

	canonical     string // canonical label+qualifier form used for exact matching
	canonicalBase string // canonical base label, shared across a variant group
}

// Canonical returns the canonical label form this rule's exact match fires on.
func (r *Rule) Canonical() string { return r.canonical }

// CanonicalBase returns the canonical base label identifying the rule's
// variant group.
func (r *Rule) CanonicalBase() string { return r.canonicalBase }

// IsNumeric reports whether the rule produces a numeric value.
func (r *Rule) IsNumeric() bool { return r.Kind != KindText }

func compileRule(rc RuleConfig) (*Rule, error) {
	if rc.BaseLabel == "" {
		return nil, fmt.Errorf("rule for field %q has an empty base label", rc.FieldKey)
	}
	if rc.FieldKey == "" {
		return nil, fmt.Errorf("rule for label %q has an empty field key", rc.BaseLabel)
	}

	kind := KindNumber
	switch Kind(rc.Kind) {
	case KindNumber, Kind(""):
	case KindText:
		kind = KindText
	default:
		return nil, fmt.Errorf("rule %q: unknown kind %q", rc.FieldKey, rc.Kind)
	}

	r := &Rule{
		BaseLabel:     rc.BaseLabel,
		Qualifier:     Qualifier(strings.ToLower(strings.TrimSpace(rc.Qualifier))),
		FieldKey:      rc.FieldKey,
		Kind:          kind,
		canonicalBase: Canonicalize(rc.BaseLabel),
	}
	if r.Qualifier == "none" {
		r.Qualifier = QualifierNone
	}
	r.canonical = r.canonicalBase
	if r.Qualifier != QualifierNone {
		r.canonical += "(" + string(r.Qualifier) + ")"
	}

	for _, p := range rc.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid pattern %q: %w", rc.FieldKey, p, err)
		}
		r.Patterns = append(r.Patterns, re)
	}
	return r, nil
}

// Canonicalize reduces label text to the form used for exact matching.
// NFKC normalization folds fullwidth CJK punctuation to its ASCII
// counterpart (（max）： becomes (max):), so labels survive the mixed
// fullwidth/halfwidth output OCR produces for CJK screens. Whitespace and
// separator punctuation carry no information and are dropped entirely.
func Canonicalize(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == ':' || r == ';' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
