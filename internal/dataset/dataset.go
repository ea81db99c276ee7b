// Package dataset holds the tabular data the analyst works on: typed columns,
// the schema descriptor passed between pipeline stages, CSV persistence, and
// the synthetic data generator.
package dataset

import (
	"fmt"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

// Canonical column names.
const (
	Feature1Column = "feature_1"
	Feature2Column = "feature_2"
	CategoryColumn = "category"
	DistanceColumn = "distance"
	LabelColumn    = "label"
)

// Kind is the value type of a column.
type Kind string

// Supported column kinds.
const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Label classifies a row after detection.
type Label string

// Detection labels.
const (
	LabelInlier  Label = "inlier"
	LabelOutlier Label = "outlier"
)

// Column is a single named column. Exactly one of Numbers or Values is used,
// depending on Kind.
type Column struct {
	Name    string
	Kind    Kind
	Numbers []float64
	Values  []string
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.Numbers)
	}
	return len(c.Values)
}

// Dataset is an ordered set of equal-length columns.
type Dataset struct {
	index   map[string]int
	columns []*Column
	rows    int
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{index: make(map[string]int)}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return d.rows
}

// Columns returns the columns in order. The slice must not be modified.
func (d *Dataset) Columns() []*Column {
	return d.columns
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// SetNumeric adds or replaces a numeric column.
func (d *Dataset) SetNumeric(name string, values []float64) error {
	return d.set(&Column{Name: name, Kind: KindNumeric, Numbers: values})
}

// SetCategorical adds or replaces a categorical column.
func (d *Dataset) SetCategorical(name string, values []string) error {
	return d.set(&Column{Name: name, Kind: KindCategorical, Values: values})
}

func (d *Dataset) set(col *Column) error {
	if col.Name == "" {
		return fmt.Errorf("%w: column name is required", common.ErrInvalidDataset)
	}
	// A lone column may be replaced with one of a different length.
	_, replacing := d.index[col.Name]
	soleColumn := replacing && len(d.columns) == 1
	if len(d.columns) > 0 && col.Len() != d.rows && !soleColumn {
		return fmt.Errorf("%w: column %q has %d rows, dataset has %d",
			common.ErrInvalidDataset, col.Name, col.Len(), d.rows)
	}

	if i, ok := d.index[col.Name]; ok {
		d.columns[i] = col
	} else {
		d.index[col.Name] = len(d.columns)
		d.columns = append(d.columns, col)
	}
	d.rows = col.Len()
	return nil
}

// Numeric returns the values of a numeric column.
func (d *Dataset) Numeric(name string) ([]float64, error) {
	col, ok := d.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", common.ErrInvalidDataset, common.ErrUnknownColumn, name)
	}
	if col.Kind != KindNumeric {
		return nil, fmt.Errorf("%w: %w: %s", common.ErrInvalidDataset, common.ErrNonNumericColumn, name)
	}
	return col.Numbers, nil
}

// Categorical returns the values of a categorical column.
func (d *Dataset) Categorical(name string) ([]string, error) {
	col, ok := d.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", common.ErrInvalidDataset, common.ErrUnknownColumn, name)
	}
	if col.Kind != KindCategorical {
		return nil, fmt.Errorf("%w: column %s is not categorical", common.ErrInvalidDataset, name)
	}
	return col.Values, nil
}

// Detected reports whether outlier detection has populated distance and label.
func (d *Dataset) Detected() bool {
	dist, ok := d.Column(DistanceColumn)
	if !ok || dist.Kind != KindNumeric {
		return false
	}
	label, ok := d.Column(LabelColumn)
	return ok && label.Kind == KindCategorical
}

// LabelCounts returns the number of inlier and outlier rows.
func (d *Dataset) LabelCounts() (inliers, outliers int, err error) {
	if !d.Detected() {
		return 0, 0, common.ErrNotAnalyzed
	}
	labels, _ := d.Categorical(LabelColumn)
	for _, l := range labels {
		switch Label(l) {
		case LabelInlier:
			inliers++
		case LabelOutlier:
			outliers++
		}
	}
	return inliers, outliers, nil
}

// Append concatenates the rows of other, which must have the same column
// names and kinds in the same order.
func (d *Dataset) Append(other *Dataset) error {
	if len(d.columns) != len(other.columns) {
		return fmt.Errorf("%w: cannot append %d columns to %d",
			common.ErrInvalidDataset, len(other.columns), len(d.columns))
	}
	for i, col := range d.columns {
		oc := other.columns[i]
		if oc.Name != col.Name || oc.Kind != col.Kind {
			return fmt.Errorf("%w: column %d mismatch: %s/%s vs %s/%s",
				common.ErrInvalidDataset, i, col.Name, col.Kind, oc.Name, oc.Kind)
		}
	}
	for i, col := range d.columns {
		oc := other.columns[i]
		if col.Kind == KindNumeric {
			col.Numbers = append(col.Numbers, oc.Numbers...)
		} else {
			col.Values = append(col.Values, oc.Values...)
		}
	}
	d.rows += other.rows
	return nil
}
