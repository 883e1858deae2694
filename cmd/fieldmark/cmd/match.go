package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/MeKo-Tech/fieldmark/internal/fragment"
	"github.com/MeKo-Tech/fieldmark/internal/matcher"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
	outputFormatText = "text"
)

// fileResult pairs an input file with its matching pass result.
type fileResult struct {
	File   string         `json:"file" yaml:"file"`
	Result matcher.Result `json:"result" yaml:"result"`
}

// matchCmd represents the match command.
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match OCR fragments against the field mapping table",
	Long: `Run a matching pass over OCR text fragments read from JSON files.

Each input file holds either a JSON array of fragments or an object with
a "fragments" key. A fragment has "text", "confidence" and a "box" with
x, y, width and height.

Examples:
  fieldmark match fragments.json
  fieldmark match fragments.json --mappings mappings.yaml
  fieldmark match *.json --format yaml --output results.yaml`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Help handling for tests
		if len(args) > 0 && (args[0] == "--help" || args[0] == "-h") {
			return cmd.Help()
		}
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()

		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}
		outputFile := cfg.Output.File
		if cmd.Flags().Changed("output") {
			outputFile, _ = cmd.Flags().GetString("output")
		}

		validFormats := []string{outputFormatJSON, outputFormatYAML, outputFormatText}
		isValidFormat := false
		for _, f := range validFormats {
			if format == f {
				isValidFormat = true
				break
			}
		}
		if !isValidFormat {
			return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(validFormats, ", "))
		}

		if cmd.Flags().Changed("min-confidence") {
			cfg.Matcher.MinConfidence, _ = cmd.Flags().GetFloat64("min-confidence")
		}
		if cmd.Flags().Changed("row-tolerance") {
			cfg.Matcher.Grouper.RowTolerance, _ = cmd.Flags().GetFloat64("row-tolerance")
		}
		if cmd.Flags().Changed("keep-sign") {
			keepSign, _ := cmd.Flags().GetBool("keep-sign")
			cfg.Matcher.Extractor.UseAbsoluteValue = !keepSign
		}

		table, err := cfg.BuildTable()
		if err != nil {
			return fmt.Errorf("failed to build mapping table: %w", err)
		}
		if table.Len() == 0 {
			return errors.New("mapping table is empty; provide --mappings or inline fields in the config file")
		}

		m := matcher.New(cfg.Matcher)

		results := make([]fileResult, 0, len(args))
		for _, path := range args {
			frags, err := readFragments(path)
			if err != nil {
				return fmt.Errorf("failed to read fragments from %s: %w", path, err)
			}

			result, err := m.Match(frags, table)
			if err != nil {
				return fmt.Errorf("matching failed for %s: %w", path, err)
			}
			results = append(results, fileResult{File: path, Result: result})
		}

		rendered, err := renderResults(results, format)
		if err != nil {
			return err
		}

		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(rendered), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
		return err
	},
}

// readFragments loads fragments from a JSON file. Both a bare array and
// an object with a "fragments" key are accepted.
func readFragments(path string) ([]fragment.Fragment, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-provided input path
	if err != nil {
		return nil, err
	}

	var frags []fragment.Fragment
	if err := json.Unmarshal(data, &frags); err == nil {
		return frags, nil
	}

	var wrapped struct {
		Fragments []fragment.Fragment `json:"fragments"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Fragments, nil
}

// renderResults formats matching results for output.
func renderResults(results []fileResult, format string) (string, error) {
	switch format {
	case outputFormatJSON:
		var payload interface{} = results
		if len(results) == 1 {
			payload = results[0].Result
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case outputFormatYAML:
		var payload interface{} = results
		if len(results) == 1 {
			payload = results[0].Result
		}
		data, err := yaml.Marshal(payload)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case outputFormatText:
		var sb strings.Builder
		for _, fr := range results {
			if len(results) > 1 {
				sb.WriteString(fmt.Sprintf("%s:\n", fr.File))
			}
			writeTextResult(&sb, fr.Result)
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func writeTextResult(sb *strings.Builder, result matcher.Result) {
	keys := make([]string, 0, len(result.Fields))
	for k := range result.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fv := result.Fields[k]
		diag := result.Diagnostics.Fields[k]
		sb.WriteString(fmt.Sprintf("%s = %v (%s, conf=%.2f)\n", k, fv.Value, diag.Strategy, diag.Confidence))
	}
	for _, k := range result.Diagnostics.Unresolved {
		sb.WriteString(fmt.Sprintf("%s: unresolved\n", k))
	}
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().StringP("format", "f", outputFormatJSON, "output format (json, yaml, text)")
	matchCmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
	matchCmd.Flags().Float64("min-confidence", 0, "drop resolved fields below this confidence")
	matchCmd.Flags().Float64("row-tolerance", 0.5, "row grouping tolerance as a fraction of median fragment height")
	matchCmd.Flags().Bool("keep-sign", false, "keep negative signs instead of reporting absolute values")
}
