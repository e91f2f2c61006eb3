package cv

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/SWARMTUNE/internal/search"
)

// ScorerByName resolves a scoring name to its scorer. All scorers follow
// the higher-is-better convention; loss-based scores are negated.
func ScorerByName(name string) (search.Scorer, error) {
	switch name {
	case "", "accuracy":
		return Accuracy, nil
	case "f1":
		return F1, nil
	case "neg_log_loss":
		return NegLogLoss, nil
	case "neg_mean_squared_error":
		return NegMeanSquaredError, nil
	default:
		return nil, search.NewErrorf("unknown scoring %q", name).WithComponent("cv")
	}
}

// Accuracy is the fraction of exactly matching predicted labels.
func Accuracy(est search.Estimator, X mat.Matrix, y []float64) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}
	hits := 0
	for i := range y {
		if pred[i] == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(y)), nil
}

// F1 is the binary F1 score with label 1 as the positive class.
func F1(est search.Estimator, X mat.Matrix, y []float64) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}
	var tp, fp, fn float64
	for i := range y {
		switch {
		case pred[i] == 1 && y[i] == 1:
			tp++
		case pred[i] == 1 && y[i] != 1:
			fp++
		case pred[i] != 1 && y[i] == 1:
			fn++
		}
	}
	if tp == 0 {
		return 0, nil
	}
	precision := tp / (tp + fp)
	recall := tp / (tp + fn)
	return 2 * precision * recall / (precision + recall), nil
}

// NegLogLoss is the negated cross-entropy of the predicted class
// probabilities. Probabilities are clipped away from 0 and 1.
func NegLogLoss(est search.Estimator, X mat.Matrix, y []float64) (float64, error) {
	proba, err := est.PredictProba(X)
	if err != nil {
		return 0, err
	}
	classes := est.Classes()
	col := make(map[float64]int, len(classes))
	for j, c := range classes {
		col[c] = j
	}

	const eps = 1e-15
	total := 0.0
	for i := range y {
		j, ok := col[y[i]]
		if !ok {
			// Label unseen during fit gets the clipped minimum.
			total += math.Log(eps)
			continue
		}
		p := proba.At(i, j)
		if p < eps {
			p = eps
		} else if p > 1-eps {
			p = 1 - eps
		}
		total += math.Log(p)
	}
	return total / float64(len(y)), nil
}

// NegMeanSquaredError is the negated mean squared error of predictions.
func NegMeanSquaredError(est search.Estimator, X mat.Matrix, y []float64) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for i := range y {
		d := pred[i] - y[i]
		total += d * d
	}
	return -total / float64(len(y)), nil
}
