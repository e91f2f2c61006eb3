package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// blobs builds two well-separated clusters labeled 0 and 1.
func blobs() (*mat.Dense, []float64) {
	rows := [][]float64{
		{0.0, 0.1}, {0.2, 0.0}, {0.1, 0.2}, {0.0, 0.0},
		{5.0, 5.1}, {5.2, 5.0}, {5.1, 5.2}, {5.0, 5.0},
	}
	X := mat.NewDense(len(rows), 2, nil)
	y := make([]float64, len(rows))
	for i, r := range rows {
		X.SetRow(i, r)
		if i >= 4 {
			y[i] = 1
		}
	}
	return X, y
}

func TestFactoryFor(t *testing.T) {
	for _, name := range []string{"nearest_centroid", "logistic"} {
		f, err := FactoryFor(name)
		require.NoError(t, err, name)
		require.NotNil(t, f, name)
	}
	_, err := FactoryFor("svm")
	assert.Error(t, err)
}

func TestNearestCentroid(t *testing.T) {
	X, y := blobs()

	for _, metric := range []string{"euclidean", "manhattan"} {
		t.Run(metric, func(t *testing.T) {
			est, err := NewNearestCentroid(map[string]any{"metric": metric})
			require.NoError(t, err)
			require.NoError(t, est.Fit(X, y))

			pred, err := est.Predict(X)
			require.NoError(t, err)
			assert.Equal(t, y, pred, "separable blobs classify perfectly")

			assert.Equal(t, []float64{0, 1}, est.Classes())

			proba, err := est.PredictProba(X)
			require.NoError(t, err)
			rows, cols := proba.Dims()
			require.Equal(t, 8, rows)
			require.Equal(t, 2, cols)
			for i := 0; i < rows; i++ {
				sum := proba.At(i, 0) + proba.At(i, 1)
				assert.InDelta(t, 1.0, sum, 1e-9, "probabilities sum to one")
				assert.Greater(t, proba.At(i, int(y[i])), 0.5, "true class dominates")
			}
		})
	}
}

func TestNearestCentroidRejectsBadParams(t *testing.T) {
	_, err := NewNearestCentroid(map[string]any{"metric": "cosine"})
	assert.Error(t, err)

	_, err = NewNearestCentroid(map[string]any{"shrink": -1.0})
	assert.Error(t, err)

	_, err = NewNearestCentroid(map[string]any{"metric": 3})
	assert.Error(t, err)
}

func TestNearestCentroidNotFitted(t *testing.T) {
	est, err := NewNearestCentroid(nil)
	require.NoError(t, err)
	_, predErr := est.Predict(mat.NewDense(1, 2, nil))
	assert.Error(t, predErr)
}

func TestLogistic(t *testing.T) {
	X, y := blobs()

	est, err := NewLogistic(map[string]any{"learning_rate": 0.5, "epochs": 500})
	require.NoError(t, err)
	require.NoError(t, est.Fit(X, y))

	pred, err := est.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, pred, "linearly separable data classifies perfectly")

	proba, err := est.PredictProba(X)
	require.NoError(t, err)
	for i := range y {
		sum := proba.At(i, 0) + proba.At(i, 1)
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestLogisticRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"zero learning rate", map[string]any{"learning_rate": 0.0}},
		{"negative learning rate", map[string]any{"learning_rate": -0.1}},
		{"zero epochs", map[string]any{"epochs": 0}},
		{"negative l2", map[string]any{"l2": -0.5}},
		{"wrong type", map[string]any{"epochs": "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLogistic(tt.params)
			assert.Error(t, err)
		})
	}
}

func TestLogisticRejectsNonBinaryLabels(t *testing.T) {
	est, err := NewLogistic(nil)
	require.NoError(t, err)
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	assert.Error(t, est.Fit(X, []float64{0, 1, 2}))
}

func TestParamHelpersAcceptDecodedIntegers(t *testing.T) {
	// Integer dimensions decode to int; numeric parameters must accept
	// them without a manual cast.
	est, err := NewLogistic(map[string]any{"learning_rate": 1, "epochs": 10})
	require.NoError(t, err)
	require.NotNil(t, est)
}
