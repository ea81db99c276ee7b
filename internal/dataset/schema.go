package dataset

import (
	"fmt"
	"strings"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

// ColumnInfo describes one column of a dataset.
type ColumnInfo struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Schema is the dataset descriptor handed between stages so producers and
// consumers agree on column names, types and whether detection has run.
type Schema struct {
	Columns  []ColumnInfo `json:"columns"`
	Rows     int          `json:"rows"`
	Detected bool         `json:"detected"`
}

// Schema returns the descriptor of the dataset.
func (d *Dataset) Schema() Schema {
	s := Schema{
		Columns:  make([]ColumnInfo, 0, len(d.columns)),
		Rows:     d.rows,
		Detected: d.Detected(),
	}
	for _, col := range d.columns {
		s.Columns = append(s.Columns, ColumnInfo{Name: col.Name, Kind: col.Kind})
	}
	return s
}

// NumericColumns returns the names of numeric columns in order.
func (s Schema) NumericColumns() []string {
	return s.names(KindNumeric)
}

// CategoricalColumns returns the names of categorical columns in order.
func (s Schema) CategoricalColumns() []string {
	return s.names(KindCategorical)
}

// Has reports whether a column with the given name and kind exists.
func (s Schema) Has(name string, kind Kind) bool {
	for _, c := range s.Columns {
		if c.Name == name && c.Kind == kind {
			return true
		}
	}
	return false
}

// RequireNumeric fails on the first name that is not a numeric column.
func (s Schema) RequireNumeric(names ...string) error {
	for _, name := range names {
		switch {
		case s.Has(name, KindNumeric):
		case s.Has(name, KindCategorical):
			return fmt.Errorf("%w: %w: %s", common.ErrInvalidDataset, common.ErrNonNumericColumn, name)
		default:
			return fmt.Errorf("%w: %w: %s", common.ErrInvalidDataset, common.ErrUnknownColumn, name)
		}
	}
	return nil
}

func (s Schema) names(kind Kind) []string {
	var out []string
	for _, c := range s.Columns {
		if c.Kind == kind {
			out = append(out, c.Name)
		}
	}
	return out
}

func (s Schema) String() string {
	parts := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		parts[i] = fmt.Sprintf("%s:%s", c.Name, c.Kind)
	}
	return fmt.Sprintf("rows=%d detected=%t [%s]", s.Rows, s.Detected, strings.Join(parts, ", "))
}
