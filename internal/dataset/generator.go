package dataset

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

// Generator parameters.
const (
	DefaultRows     = 3000
	InjectedRows    = 20
	OutlierCategory = "Outlier"
)

// Categories sampled uniformly for baseline rows.
var baselineCategories = []string{"A", "B", "C"}

// Generator draws synthetic datasets: a normal baseline plus a fixed cluster
// of mean-shifted rows appended at the end.
type Generator struct {
	src rand.Source
}

// NewGenerator returns a generator seeded from process entropy.
func NewGenerator() *Generator {
	return &Generator{src: rand.NewPCG(rand.Uint64(), rand.Uint64())}
}

// NewGeneratorWithSeed returns a generator with a fixed seed.
func NewGeneratorWithSeed(seed uint64) *Generator {
	return &Generator{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// Generate produces rows baseline samples followed by InjectedRows outliers.
func (g *Generator) Generate(rows int) (*Dataset, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("%w: rows must be positive, got %d", common.ErrInvalidDataset, rows)
	}

	weights := make([]float64, len(baselineCategories))
	for i := range weights {
		weights[i] = 1
	}
	pick := distuv.NewCategorical(weights, g.src)

	base, err := g.sample(rows,
		distuv.Normal{Mu: 50, Sigma: 10, Src: g.src},
		distuv.Normal{Mu: 30, Sigma: 5, Src: g.src},
		func() string { return baselineCategories[int(pick.Rand())] })
	if err != nil {
		return nil, err
	}

	injected, err := g.sample(InjectedRows,
		distuv.Normal{Mu: 150, Sigma: 5, Src: g.src},
		distuv.Normal{Mu: 90, Sigma: 5, Src: g.src},
		func() string { return OutlierCategory })
	if err != nil {
		return nil, err
	}

	if err := base.Append(injected); err != nil {
		return nil, fmt.Errorf("failed to append injected rows: %w", err)
	}
	return base, nil
}

func (g *Generator) sample(n int, f1, f2 distuv.Normal, category func() string) (*Dataset, error) {
	x := make([]float64, n)
	y := make([]float64, n)
	cats := make([]string, n)
	for i := 0; i < n; i++ {
		x[i] = f1.Rand()
		y[i] = f2.Rand()
		cats[i] = category()
	}

	ds := New()
	if err := ds.SetNumeric(Feature1Column, x); err != nil {
		return nil, err
	}
	if err := ds.SetNumeric(Feature2Column, y); err != nil {
		return nil, err
	}
	if err := ds.SetCategorical(CategoryColumn, cats); err != nil {
		return nil, err
	}
	return ds, nil
}
