package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/SWARMTUNE/internal/search"
)

// Logistic is binary logistic regression trained by full-batch gradient
// descent. Labels must be exactly {0, 1}. Recognized parameters:
//
//	learning_rate: positive step size (default 0.1)
//	epochs:        positive gradient steps (default 100)
//	l2:            non-negative ridge penalty (default 0)
type Logistic struct {
	learningRate float64
	epochs       int
	l2           float64

	weights []float64
	bias    float64
	classes []float64
}

// NewLogistic builds an unfitted logistic classifier from a parameter
// mapping.
func NewLogistic(params map[string]any) (search.Estimator, error) {
	lr, err := paramFloat(params, "learning_rate", 0.1)
	if err != nil {
		return nil, err
	}
	if lr <= 0 {
		return nil, fmt.Errorf("learning_rate must be positive, got %v", lr)
	}
	epochs, err := paramInt(params, "epochs", 100)
	if err != nil {
		return nil, err
	}
	if epochs <= 0 {
		return nil, fmt.Errorf("epochs must be positive, got %d", epochs)
	}
	l2, err := paramFloat(params, "l2", 0)
	if err != nil {
		return nil, err
	}
	if l2 < 0 {
		return nil, fmt.Errorf("l2 must be non-negative, got %v", l2)
	}
	return &Logistic{learningRate: lr, epochs: epochs, l2: l2}, nil
}

// Fit runs gradient descent on the logistic loss.
func (lg *Logistic) Fit(X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return fmt.Errorf("empty training set")
	}
	for _, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("labels must be 0 or 1, got %v", v)
		}
	}
	lg.classes = []float64{0, 1}
	lg.weights = make([]float64, cols)
	lg.bias = 0

	grad := make([]float64, cols)
	for epoch := 0; epoch < lg.epochs; epoch++ {
		for j := range grad {
			grad[j] = lg.l2 * lg.weights[j]
		}
		gradBias := 0.0
		for i := 0; i < rows; i++ {
			z := lg.bias
			for j := 0; j < cols; j++ {
				z += lg.weights[j] * X.At(i, j)
			}
			residual := sigmoid(z) - y[i]
			for j := 0; j < cols; j++ {
				grad[j] += residual * X.At(i, j) / float64(rows)
			}
			gradBias += residual / float64(rows)
		}
		for j := range lg.weights {
			lg.weights[j] -= lg.learningRate * grad[j]
		}
		lg.bias -= lg.learningRate * gradBias
	}
	return nil
}

// Predict thresholds the positive-class probability at 0.5.
func (lg *Logistic) Predict(X mat.Matrix) ([]float64, error) {
	proba, err := lg.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	pred := make([]float64, rows)
	for i := 0; i < rows; i++ {
		if proba.At(i, 1) >= 0.5 {
			pred[i] = 1
		}
	}
	return pred, nil
}

// PredictProba returns an (n x 2) matrix of class probabilities with
// columns [P(y=0), P(y=1)].
func (lg *Logistic) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if lg.weights == nil {
		return nil, fmt.Errorf("estimator not fitted")
	}
	rows, cols := X.Dims()
	if cols != len(lg.weights) {
		return nil, fmt.Errorf("feature count mismatch: fit on %d, got %d", len(lg.weights), cols)
	}
	proba := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		z := lg.bias
		for j := 0; j < cols; j++ {
			z += lg.weights[j] * X.At(i, j)
		}
		p := sigmoid(z)
		proba.Set(i, 0, 1-p)
		proba.Set(i, 1, p)
	}
	return proba, nil
}

// Classes returns {0, 1}.
func (lg *Logistic) Classes() []float64 { return lg.classes }

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
