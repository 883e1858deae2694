package grouper

import (
	"github.com/MeKo-Tech/fieldmark/internal/fragment"
)

// Config contains row clustering settings.
type Config struct {
	// RowTolerance is the vertical merge tolerance as a fraction of the
	// median fragment height. Fragments whose vertical centers differ by
	// more than this never share a row, so stacked readings stay apart.
	RowTolerance float64 `mapstructure:"row_tolerance" yaml:"row_tolerance" json:"row_tolerance"`
}

// DefaultConfig returns default grouper settings. The 0.5 tolerance was
// calibrated against screen captures where adjacent readings sit roughly one
// text height apart.
func DefaultConfig() Config {
	return Config{RowTolerance: 0.5}
}

// Grouper clusters OCR fragments into reading-order rows.
type Grouper struct {
	cfg Config
}

// New creates a grouper.
func New(cfg Config) *Grouper {
	if cfg.RowTolerance <= 0 {
		cfg.RowTolerance = DefaultConfig().RowTolerance
	}
	return &Grouper{cfg: cfg}
}

// Group clusters fragments into rows by vertical proximity and orders each
// row left to right. Rows are returned top to bottom; together this is the
// base reading order the label resolver consumes. The input slice is not
// modified.
func (g *Grouper) Group(frags []fragment.Fragment) [][]fragment.Fragment {
	if len(frags) == 0 {
		return nil
	}

	sorted := make([]fragment.Fragment, len(frags))
	copy(sorted, frags)
	fragment.SortVertical(sorted)

	tolerance := g.cfg.RowTolerance * fragment.MedianHeight(sorted)

	var rows [][]fragment.Fragment
	var row []fragment.Fragment
	var rowCenterSum float64

	flush := func() {
		if len(row) > 0 {
			fragment.SortHorizontal(row)
			rows = append(rows, row)
		}
	}

	for _, f := range sorted {
		if len(row) > 0 {
			rowCenter := rowCenterSum / float64(len(row))
			if f.CenterY()-rowCenter > tolerance {
				flush()
				row = nil
				rowCenterSum = 0
			}
		}
		row = append(row, f)
		rowCenterSum += f.CenterY()
	}
	flush()

	return rows
}
