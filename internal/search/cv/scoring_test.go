package cv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestScorerByName(t *testing.T) {
	for _, name := range []string{"", "accuracy", "f1", "neg_log_loss", "neg_mean_squared_error"} {
		s, err := ScorerByName(name)
		require.NoError(t, err, name)
		require.NotNil(t, s, name)
	}
	_, err := ScorerByName("roc_auc")
	assert.Error(t, err)
}

func TestAccuracy(t *testing.T) {
	est := &cannedEstimator{pred: []float64{0, 1, 1, 0}, classes: []float64{0, 1}}
	X := mat.NewDense(4, 1, nil)

	score, err := Accuracy(est, X, []float64{0, 1, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, score, 1e-12)
}

func TestF1(t *testing.T) {
	// pred: 1,1,0,0  truth: 1,0,1,0 -> tp=1 fp=1 fn=1 -> f1 = 0.5
	est := &cannedEstimator{pred: []float64{1, 1, 0, 0}, classes: []float64{0, 1}}
	X := mat.NewDense(4, 1, nil)

	score, err := F1(est, X, []float64{1, 0, 1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-12)

	// No true positives at all gives zero, not NaN.
	none := &cannedEstimator{pred: []float64{0, 0}, classes: []float64{0, 1}}
	score, err = F1(none, mat.NewDense(2, 1, nil), []float64{1, 1})
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestNegLogLoss(t *testing.T) {
	est := &cannedEstimator{
		classes: []float64{0, 1},
		proba:   mat.NewDense(1, 2, []float64{0.2, 0.8}),
	}
	X := mat.NewDense(2, 1, nil)

	// Every row predicts [0.2, 0.8]; truth is one of each class.
	score, err := NegLogLoss(est, X, []float64{1, 0})
	require.NoError(t, err)
	want := (math.Log(0.8) + math.Log(0.2)) / 2
	assert.InDelta(t, want, score, 1e-12)
	assert.Negative(t, score)
}

func TestNegMeanSquaredError(t *testing.T) {
	est := &cannedEstimator{pred: []float64{1, 2, 3}, classes: []float64{0, 1}}
	X := mat.NewDense(3, 1, nil)

	score, err := NegMeanSquaredError(est, X, []float64{1, 2, 5})
	require.NoError(t, err)
	assert.InDelta(t, -4.0/3.0, score, 1e-12)
}
