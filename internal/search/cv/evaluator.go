package cv

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/SWARMTUNE/internal/logging"
	"github.com/copyleftdev/SWARMTUNE/internal/metrics"
	"github.com/copyleftdev/SWARMTUNE/internal/search"
)

// Sentinel is the fitness assigned to a candidate that failed to
// evaluate. It loses every comparison, so failed candidates are simply
// outcompeted and the generational loop keeps going.
var Sentinel = math.Inf(-1)

// Evaluator scores decoded candidates under k-fold cross-validation.
// Evaluations of distinct candidates are independent and side-effect
// free, so the driver may run them concurrently. Repeat candidates are
// answered from a score cache instead of being refit.
type Evaluator struct {
	x       *mat.Dense
	y       []float64
	factory search.Factory
	scorer  search.Scorer
	folds   []Fold
	logger  *logging.Logger

	mu    sync.Mutex
	cache map[string]float64
}

// NewEvaluator builds an evaluator over a fixed dataset and fold split.
func NewEvaluator(x *mat.Dense, y []float64, factory search.Factory, scorer search.Scorer, folds []Fold, logger *logging.Logger) *Evaluator {
	return &Evaluator{
		x:       x,
		y:       y,
		factory: factory,
		scorer:  scorer,
		folds:   folds,
		logger:  logger,
		cache:   make(map[string]float64),
	}
}

// Params scores a hyperparameter candidate: a fresh estimator is built
// from params for every fold, fitted on the train rows and scored on the
// test rows. Returns the mean fold score, or Sentinel if any fold fails.
func (e *Evaluator) Params(params map[string]any) float64 {
	return e.cached(paramsKey(params), func() (float64, error) {
		return e.crossValidate(params, nil)
	})
}

// Features scores a feature-subset candidate: X is restricted to the
// mask's columns and the estimator is built with no parameters.
func (e *Evaluator) Features(mask []int) float64 {
	return e.cached(maskKey(mask), func() (float64, error) {
		return e.crossValidate(nil, mask)
	})
}

func (e *Evaluator) cached(key string, eval func() (float64, error)) float64 {
	e.mu.Lock()
	if val, ok := e.cache[key]; ok {
		e.mu.Unlock()
		metrics.CacheHits.Inc()
		return val
	}
	e.mu.Unlock()

	metrics.Evaluations.Inc()
	val, err := eval()
	if err != nil {
		metrics.EvaluationFailures.Inc()
		if e.logger != nil {
			e.logger.Debug("candidate failed evaluation", map[string]interface{}{
				"candidate": key,
				"error":     err.Error(),
			})
		}
		val = Sentinel
	}

	e.mu.Lock()
	e.cache[key] = val
	e.mu.Unlock()
	return val
}

func (e *Evaluator) crossValidate(params map[string]any, mask []int) (float64, error) {
	scores := make([]float64, len(e.folds))
	for i, fold := range e.folds {
		est, err := e.factory(params)
		if err != nil {
			return 0, search.WrapError(err, "estimator construction failed").WithComponent("cv")
		}
		trainX, trainY := e.subset(fold.Train, mask)
		if err := est.Fit(trainX, trainY); err != nil {
			return 0, search.WrapError(err, "estimator fit failed").WithComponent("cv")
		}
		testX, testY := e.subset(fold.Test, mask)
		score, err := e.scorer(est, testX, testY)
		if err != nil {
			return 0, search.WrapError(err, "scoring failed").WithComponent("cv")
		}
		scores[i] = score
	}
	return stat.Mean(scores, nil), nil
}

// Proba produces held-out class probabilities for a candidate using the
// same fold split: each row is predicted by the estimator whose fold
// held it out, assembled in original row order. Columns follow the
// sorted distinct labels of the full target vector; a class a fold's
// estimator never saw keeps probability zero for that fold's rows.
func (e *Evaluator) Proba(params map[string]any, mask []int) (*mat.Dense, error) {
	classes := distinctSorted(e.y)
	col := make(map[float64]int, len(classes))
	for j, c := range classes {
		col[c] = j
	}

	n, _ := e.x.Dims()
	out := mat.NewDense(n, len(classes), nil)
	for _, fold := range e.folds {
		est, err := e.factory(params)
		if err != nil {
			return nil, search.WrapError(err, "estimator construction failed").WithComponent("cv")
		}
		trainX, trainY := e.subset(fold.Train, mask)
		if err := est.Fit(trainX, trainY); err != nil {
			return nil, search.WrapError(err, "estimator fit failed").WithComponent("cv")
		}
		testX, _ := e.subset(fold.Test, mask)
		proba, err := est.PredictProba(testX)
		if err != nil {
			return nil, search.WrapError(err, "predict_proba failed").WithComponent("cv")
		}
		for localJ, class := range est.Classes() {
			globalJ, ok := col[class]
			if !ok {
				continue
			}
			for localI, row := range fold.Test {
				out.Set(row, globalJ, proba.At(localI, localJ))
			}
		}
	}
	return out, nil
}

// subset extracts the given rows of X and y, optionally restricted to
// the mask's columns. A nil mask keeps every column.
func (e *Evaluator) subset(rows []int, mask []int) (*mat.Dense, []float64) {
	_, cols := e.x.Dims()
	if mask == nil {
		mask = make([]int, cols)
		for j := range mask {
			mask[j] = j
		}
	}
	sub := mat.NewDense(len(rows), len(mask), nil)
	y := make([]float64, len(rows))
	for i, r := range rows {
		for j, c := range mask {
			sub.Set(i, j, e.x.At(r, c))
		}
		y[i] = e.y[r]
	}
	return sub, y
}

func distinctSorted(y []float64) []float64 {
	seen := make(map[float64]bool)
	out := make([]float64, 0, 8)
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// paramsKey canonicalizes a parameter mapping so equal candidates hit
// the same cache entry regardless of map iteration order.
func paramsKey(params map[string]any) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%v;", name, params[name])
	}
	return b.String()
}

func maskKey(mask []int) string {
	var b strings.Builder
	for _, f := range mask {
		fmt.Fprintf(&b, "%d,", f)
	}
	return b.String()
}
