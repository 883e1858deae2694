package extractor

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/fieldmark/internal/fragment"
	"github.com/MeKo-Tech/fieldmark/internal/mapping"
)

// Sentinel errors for local, non-fatal extraction failures. The
// orchestrator converts them into diagnostics; they never abort a pass.
var (
	// ErrNoValue means no value fragment carried a numeric token.
	ErrNoValue = errors.New("no value found for field")
	// ErrMalformedNumber means a numeric token was located but did not parse.
	ErrMalformedNumber = errors.New("malformed numeric value")
)

// Sign records the polarity of an extracted numeric value after the
// absolute-value policy has been applied.
type Sign string

const (
	SignPositive Sign = "positive"
	SignNegative Sign = "negative"
)

// FieldValue is the terminal output unit for one resolved field.
// Value holds int64 for integer-form tokens, float64 for decimal-form
// tokens, and string for text-kind rules.
type FieldValue struct {
	FieldKey  string      `json:"field_key"`
	Raw       string      `json:"raw"`
	Value     interface{} `json:"value"`
	IsNumeric bool        `json:"is_numeric"`
	Sign      Sign        `json:"sign"`
}

// Config controls value normalization.
type Config struct {
	// UseAbsoluteValue strips a leading minus sign and emits the
	// non-negative magnitude, recording the sign as positive.
	UseAbsoluteValue bool `mapstructure:"use_absolute_value" yaml:"use_absolute_value" json:"use_absolute_value"`
}

// DefaultConfig returns the default normalization settings.
func DefaultConfig() Config {
	return Config{UseAbsoluteValue: true}
}

// Extractor parses and normalizes field values from value fragments.
type Extractor struct {
	cfg Config
}

// New creates an extractor.
func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// numericPattern matches an optional leading minus, digits, and an optional
// single decimal point with further digits. Greedy quantifiers make the
// leftmost match the longest one starting at that position, which strips
// text glued to the number (units, trailing punctuation).
var numericPattern = regexp.MustCompile(`-?[0-9]+(?:\.[0-9]+)?`)

// FindNumeric returns the first numeric token in s, if any.
func FindNumeric(s string) (string, bool) {
	m := numericPattern.FindString(s)
	return m, m != ""
}

// SplitNumeric splits s at its first numeric token, returning the text
// before the token and the token itself.
func SplitNumeric(s string) (before, numeric string, ok bool) {
	loc := numericPattern.FindStringIndex(s)
	if loc == nil {
		return "", "", false
	}
	return s[:loc[0]], s[loc[0]:loc[1]], true
}

// IsNumericFragment reports whether the fragment text, after trimming,
// begins with a numeric token. The label resolver uses this as the boundary
// between label fragments and value fragments within a row.
func IsNumericFragment(text string) bool {
	trimmed := strings.TrimSpace(text)
	loc := numericPattern.FindStringIndex(trimmed)
	return loc != nil && loc[0] == 0
}

// Extract produces the FieldValue for one resolved rule. capturedRaw, when
// non-empty, is a value already captured by a pattern group and takes
// precedence over scanning the value fragments.
func (e *Extractor) Extract(rule *mapping.Rule, valueFrags []fragment.Fragment, capturedRaw string) (FieldValue, error) {
	if !rule.IsNumeric() {
		return e.extractText(rule, valueFrags, capturedRaw)
	}

	token := capturedRaw
	if token == "" {
		for _, f := range valueFrags {
			if m, ok := FindNumeric(f.Text); ok {
				token = m
				break
			}
		}
	} else if m, ok := FindNumeric(token); ok {
		// Pattern groups can capture surrounding glue; keep only the number.
		token = m
	}
	if token == "" {
		return FieldValue{}, ErrNoValue
	}

	return e.normalizeNumeric(rule.FieldKey, token)
}

// normalizeNumeric parses a numeric token, preserving the integer-vs-decimal
// distinction of its literal form and applying the sign policy.
func (e *Extractor) normalizeNumeric(fieldKey, token string) (FieldValue, error) {
	fv := FieldValue{
		FieldKey:  fieldKey,
		Raw:       token,
		IsNumeric: true,
		Sign:      SignPositive,
	}

	parsed := token
	negative := strings.HasPrefix(parsed, "-")
	if negative {
		if e.cfg.UseAbsoluteValue {
			parsed = parsed[1:]
		} else {
			fv.Sign = SignNegative
		}
	}

	if strings.Contains(parsed, ".") {
		f, err := strconv.ParseFloat(parsed, 64)
		if err != nil {
			return FieldValue{}, ErrMalformedNumber
		}
		fv.Value = f
		return fv, nil
	}
	n, err := strconv.ParseInt(parsed, 10, 64)
	if err != nil {
		return FieldValue{}, ErrMalformedNumber
	}
	fv.Value = n
	return fv, nil
}

func (e *Extractor) extractText(rule *mapping.Rule, valueFrags []fragment.Fragment, capturedRaw string) (FieldValue, error) {
	raw := capturedRaw
	if raw == "" {
		parts := make([]string, 0, len(valueFrags))
		for _, f := range valueFrags {
			parts = append(parts, f.Text)
		}
		raw = strings.Join(parts, " ")
	}
	raw = strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), ":："))
	if raw == "" {
		return FieldValue{}, ErrNoValue
	}
	return FieldValue{
		FieldKey:  rule.FieldKey,
		Raw:       raw,
		Value:     raw,
		IsNumeric: false,
		Sign:      SignPositive,
	}, nil
}
