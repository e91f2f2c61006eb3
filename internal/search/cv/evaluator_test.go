package cv

import (
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/SWARMTUNE/internal/search"
)

// cannedEstimator returns fixed predictions regardless of input.
type cannedEstimator struct {
	pred    []float64
	proba   *mat.Dense
	classes []float64
	fitErr  error
}

func (c *cannedEstimator) Fit(X mat.Matrix, y []float64) error { return c.fitErr }

func (c *cannedEstimator) Predict(X mat.Matrix) ([]float64, error) {
	rows, _ := X.Dims()
	if c.pred != nil {
		return c.pred[:rows], nil
	}
	return make([]float64, rows), nil
}

func (c *cannedEstimator) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	rows, _ := X.Dims()
	out := mat.NewDense(rows, len(c.classes), nil)
	for i := 0; i < rows; i++ {
		for j := range c.classes {
			out.Set(i, j, c.proba.At(0, j))
		}
	}
	return out, nil
}

func (c *cannedEstimator) Classes() []float64 { return c.classes }

func constScorer(score float64) search.Scorer {
	return func(est search.Estimator, X mat.Matrix, y []float64) (float64, error) {
		return score, nil
	}
}

func testData(rows, cols int) (*mat.Dense, []float64) {
	X := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, float64(i*cols+j))
		}
		y[i] = float64(i % 2)
	}
	return X, y
}

func TestEvaluatorMeanFoldScore(t *testing.T) {
	X, y := testData(8, 2)
	folds, err := KFold{NSplits: 4, Seed: 1}.Split(8)
	require.NoError(t, err)

	scores := []float64{0.2, 0.4, 0.6, 0.8}
	var call int32
	scorer := func(est search.Estimator, X mat.Matrix, y []float64) (float64, error) {
		i := atomic.AddInt32(&call, 1) - 1
		return scores[i], nil
	}
	factory := func(params map[string]any) (search.Estimator, error) {
		return &cannedEstimator{classes: []float64{0, 1}}, nil
	}

	e := NewEvaluator(X, y, factory, scorer, folds, nil)
	got := e.Params(map[string]any{"p": 1})
	assert.InDelta(t, 0.5, got, 1e-12, "fitness is the mean fold score")
}

func TestEvaluatorFailureReturnsSentinel(t *testing.T) {
	X, y := testData(6, 2)
	folds, err := KFold{NSplits: 3, Seed: 1}.Split(6)
	require.NoError(t, err)

	t.Run("construction failure", func(t *testing.T) {
		factory := func(params map[string]any) (search.Estimator, error) {
			return nil, fmt.Errorf("incompatible parameters")
		}
		e := NewEvaluator(X, y, factory, constScorer(1), folds, nil)
		assert.True(t, math.IsInf(e.Params(map[string]any{"p": 1}), -1))
	})

	t.Run("fit failure", func(t *testing.T) {
		factory := func(params map[string]any) (search.Estimator, error) {
			return &cannedEstimator{classes: []float64{0, 1}, fitErr: fmt.Errorf("singular")}, nil
		}
		e := NewEvaluator(X, y, factory, constScorer(1), folds, nil)
		assert.True(t, math.IsInf(e.Features([]int{0}), -1))
	})
}

func TestEvaluatorCachesCandidates(t *testing.T) {
	X, y := testData(6, 2)
	folds, err := KFold{NSplits: 3, Seed: 1}.Split(6)
	require.NoError(t, err)

	var constructions int32
	factory := func(params map[string]any) (search.Estimator, error) {
		atomic.AddInt32(&constructions, 1)
		return &cannedEstimator{classes: []float64{0, 1}}, nil
	}
	e := NewEvaluator(X, y, factory, constScorer(0.7), folds, nil)

	first := e.Params(map[string]any{"a": 1, "b": "x"})
	after := atomic.LoadInt32(&constructions)
	second := e.Params(map[string]any{"b": "x", "a": 1})

	assert.Equal(t, first, second)
	assert.Equal(t, after, atomic.LoadInt32(&constructions),
		"equal candidates must be answered from the cache")
}

func TestEvaluatorRestrictsFeatures(t *testing.T) {
	X, y := testData(6, 4)
	folds, err := KFold{NSplits: 3, Seed: 1}.Split(6)
	require.NoError(t, err)

	scorer := func(est search.Estimator, X mat.Matrix, y []float64) (float64, error) {
		_, cols := X.Dims()
		return float64(cols), nil
	}
	factory := func(params map[string]any) (search.Estimator, error) {
		return &cannedEstimator{classes: []float64{0, 1}}, nil
	}
	e := NewEvaluator(X, y, factory, scorer, folds, nil)

	assert.Equal(t, 2.0, e.Features([]int{1, 3}), "scorer must see only masked columns")
}

func TestEvaluatorProba(t *testing.T) {
	X, y := testData(9, 2)
	folds, err := KFold{NSplits: 3, Seed: 1}.Split(9)
	require.NoError(t, err)

	factory := func(params map[string]any) (search.Estimator, error) {
		return &cannedEstimator{
			classes: []float64{0, 1},
			proba:   mat.NewDense(1, 2, []float64{0.25, 0.75}),
		}, nil
	}
	e := NewEvaluator(X, y, factory, constScorer(1), folds, nil)

	proba, err := e.Proba(nil, []int{0, 1})
	require.NoError(t, err)
	rows, cols := proba.Dims()
	assert.Equal(t, 9, rows, "one row per sample in original order")
	assert.Equal(t, 2, cols, "one column per distinct label")
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 0.25, proba.At(i, 0), 1e-12)
		assert.InDelta(t, 0.75, proba.At(i, 1), 1e-12)
	}
}
