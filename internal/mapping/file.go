package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk mapping table format.
type Document struct {
	Fields []RuleConfig `yaml:"fields" json:"fields"`
}

// LoadFile reads, validates, and compiles a mapping table document.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return ParseDocument(data)
}

// ParseDocument validates and compiles a YAML mapping document.
func ParseDocument(data []byte) (*Table, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse mapping document: %w", err)
	}
	return NewTable(doc.Fields)
}

// SaveFile writes a mapping table document, replacing any previous content.
// The write goes through a temp file and rename so a concurrent file watcher
// never observes a partially written document.
func SaveFile(path string, doc Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping document: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write mapping file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace mapping file: %w", err)
	}
	return nil
}

// DocumentFromTable converts a compiled table back to its on-disk form.
func DocumentFromTable(t *Table) Document {
	doc := Document{Fields: make([]RuleConfig, 0, t.Len())}
	for _, r := range t.Rules() {
		rc := RuleConfig{
			BaseLabel: r.BaseLabel,
			Qualifier: string(r.Qualifier),
			FieldKey:  r.FieldKey,
		}
		if r.Kind == KindText {
			rc.Kind = string(KindText)
		}
		for _, p := range r.Patterns {
			rc.Patterns = append(rc.Patterns, p.String())
		}
		doc.Fields = append(doc.Fields, rc)
	}
	return doc
}
