package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

// ReadCSV parses a CSV stream with a header row. A column is numeric when
// every cell parses as a float, otherwise it is categorical.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty CSV", common.ErrInvalidDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %w", common.ErrInvalidDataset, err)
	}

	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, fmt.Errorf("%w: column %d has an empty header", common.ErrInvalidDataset, i)
		}
		if seen[h] {
			return nil, fmt.Errorf("%w: duplicate column %q", common.ErrInvalidDataset, h)
		}
		seen[h] = true
		headers[i] = h
	}

	cells := make([][]string, len(headers))
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", common.ErrInvalidDataset, line, err)
		}
		for i, v := range record {
			cells[i] = append(cells[i], strings.TrimSpace(v))
		}
	}

	ds := New()
	for i, name := range headers {
		if nums, ok := parseNumbers(cells[i]); ok {
			err = ds.SetNumeric(name, nums)
		} else {
			err = ds.SetCategorical(name, cells[i])
		}
		if err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func parseNumbers(values []string) ([]float64, bool) {
	if len(values) == 0 {
		return nil, false
	}
	nums := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		nums[i] = f
	}
	return nums, true
}

// WriteCSV writes the dataset with a header row. Floats use the shortest
// representation that parses back to the same value.
func (d *Dataset) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := make([]string, len(d.columns))
	for i, col := range d.columns {
		header[i] = col.Name
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(d.columns))
	for row := 0; row < d.rows; row++ {
		for i, col := range d.columns {
			if col.Kind == KindNumeric {
				record[i] = strconv.FormatFloat(col.Numbers[row], 'f', -1, 64)
			} else {
				record[i] = col.Values[row]
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", row, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Load reads a dataset from a CSV file. A missing file yields an error
// wrapping common.ErrNoDataset.
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path) //nolint:gosec // path comes from configuration
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", common.ErrNoDataset, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = file.Close() }()

	ds, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	return ds, nil
}

// Save writes the dataset to path, creating parent directories. The file is
// written to a temporary sibling first and renamed into place.
func Save(path string, d *Dataset) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := d.WriteCSV(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move dataset into place: %w", err)
	}
	return nil
}
