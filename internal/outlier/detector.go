// Package outlier scores rows by Mahalanobis distance from the dataset mean
// and labels them inlier or outlier against a threshold.
package outlier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/dataset"
)

// DefaultThreshold is the distance above which a row is an outlier.
const DefaultThreshold = 4.0

// pinvRcond matches numpy's default relative cutoff for small singular values.
const pinvRcond = 1e-15

// DefaultFeatures are the columns the pipeline detects on.
var DefaultFeatures = []string{dataset.Feature1Column, dataset.Feature2Column}

// Result summarizes one detection run.
type Result struct {
	Features  []string
	Distances []float64
	Labels    []dataset.Label
	Threshold float64
	Inliers   int
	Outliers  int
	// Pseudo is true when the covariance was singular or ill-conditioned and
	// the Moore-Penrose pseudo-inverse was used.
	Pseudo bool
}

// Detect computes the Mahalanobis distance of every row over features and
// writes the distance and label columns into ds.
func Detect(ds *dataset.Dataset, features []string, threshold float64) (*Result, error) {
	x, err := featureMatrix(ds, features)
	if err != nil {
		return nil, err
	}
	if threshold < 0 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: %w: %g", common.ErrInvalidDataset, common.ErrInvalidThreshold, threshold)
	}

	rows, cols := x.Dims()

	mean := make([]float64, cols)
	for j := 0; j < cols; j++ {
		mean[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)

	precision, pseudo := invert(&cov)

	res := &Result{
		Features:  append([]string(nil), features...),
		Distances: make([]float64, rows),
		Labels:    make([]dataset.Label, rows),
		Threshold: threshold,
		Pseudo:    pseudo,
	}

	labels := make([]string, rows)
	diff := mat.NewVecDense(cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			diff.SetVec(j, x.At(i, j)-mean[j])
		}
		d := math.Sqrt(math.Max(0, mat.Inner(diff, precision, diff)))
		res.Distances[i] = d

		if d > threshold {
			res.Labels[i] = dataset.LabelOutlier
			res.Outliers++
		} else {
			res.Labels[i] = dataset.LabelInlier
			res.Inliers++
		}
		labels[i] = string(res.Labels[i])
	}

	if err := ds.SetNumeric(dataset.DistanceColumn, append([]float64(nil), res.Distances...)); err != nil {
		return nil, fmt.Errorf("failed to store distances: %w", err)
	}
	if err := ds.SetCategorical(dataset.LabelColumn, labels); err != nil {
		return nil, fmt.Errorf("failed to store labels: %w", err)
	}

	return res, nil
}

// featureMatrix validates the requested features and copies them into a
// rows x features matrix.
func featureMatrix(ds *dataset.Dataset, features []string) (*mat.Dense, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: at least one feature column is required", common.ErrInvalidDataset)
	}
	if ds.Len() < 2 {
		return nil, fmt.Errorf("%w: %w: need at least 2 rows, got %d",
			common.ErrInvalidDataset, common.ErrInsufficientRows, ds.Len())
	}

	seen := make(map[string]bool, len(features))
	x := mat.NewDense(ds.Len(), len(features), nil)
	for j, name := range features {
		if seen[name] {
			return nil, fmt.Errorf("%w: feature %q listed twice", common.ErrInvalidDataset, name)
		}
		seen[name] = true

		values, err := ds.Numeric(name)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: column %s row %d is not finite", common.ErrInvalidDataset, name, i)
			}
			x.Set(i, j, v)
		}
	}
	return x, nil
}

// invert returns the inverse of cov, or its pseudo-inverse when the matrix is
// singular or too ill-conditioned to invert reliably.
func invert(cov *mat.SymDense) (mat.Matrix, bool) {
	var inv mat.Dense
	if err := inv.Inverse(cov); err == nil {
		return &inv, false
	}
	return pseudoInverse(cov), true
}

// pseudoInverse computes the Moore-Penrose inverse via SVD: V·diag(1/σ)·Uᵀ,
// dropping singular values below pinvRcond·σmax.
func pseudoInverse(a mat.Matrix) *mat.Dense {
	r, c := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return mat.NewDense(c, r, nil)
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	cutoff := 0.0
	if len(values) > 0 {
		cutoff = pinvRcond * values[0]
	}

	inv := make([]float64, len(values))
	for i, s := range values {
		if s > cutoff {
			inv[i] = 1 / s
		}
	}

	var vs mat.Dense
	vs.Mul(&v, mat.NewDiagDense(len(inv), inv))

	var out mat.Dense
	out.Mul(&vs, u.T())
	return &out
}
