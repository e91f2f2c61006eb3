// Package pso implements the particle swarm search driver: it owns the
// swarm for the lifetime of one Fit call and runs the generational
// evaluate / update-bests / apply-dynamics loop against the
// cross-validation harness.
package pso

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/SWARMTUNE/internal/logging"
	"github.com/copyleftdev/SWARMTUNE/internal/metrics"
	"github.com/copyleftdev/SWARMTUNE/internal/search"
	"github.com/copyleftdev/SWARMTUNE/internal/search/cv"
	"github.com/copyleftdev/SWARMTUNE/internal/search/space"
	"github.com/copyleftdev/SWARMTUNE/internal/search/swarm"
)

// Config describes one search. Exactly one of Space (hyperparameter
// tuning) or SelectFeatures (feature selection over the columns of X)
// must be set.
type Config struct {
	// Space is the hyperparameter search space, nil in selection mode.
	Space *space.Space

	// SelectFeatures switches the driver to feature selection: one
	// binary inclusion axis per column of X.
	SelectFeatures bool

	// Factory builds an estimator per decoded candidate and fold.
	Factory search.Factory

	// NParticles is the swarm population size.
	NParticles int

	// MaxIter is the generation budget.
	MaxIter int

	// NJobs bounds the parallel evaluation workers; values below 1
	// default to the number of CPUs.
	NJobs int

	// Patience is the number of consecutive generations without a
	// global-best improvement before stopping early. Zero disables
	// early stopping and the loop runs the full MaxIter.
	Patience int

	// Strategy names the update rule: vanilla, anneal or ring. The
	// empty string selects vanilla.
	Strategy string

	// Seed drives the explicit RNG owned by the swarm and the fold
	// shuffle. A fixed seed reproduces an identical run, including
	// under parallel evaluation.
	Seed int64

	// Folds is the cross-validation fold count; values below 2 default
	// to 5.
	Folds int

	// Scoring names a built-in scorer (accuracy, f1, neg_log_loss,
	// neg_mean_squared_error). Ignored when Scorer is set.
	Scoring string

	// Scorer overrides Scoring with a custom scoring function.
	Scorer search.Scorer

	// Logger receives progress reporting; nil suppresses it.
	Logger *logging.Logger
}

// Driver runs particle swarm searches. One Driver may serve multiple
// sequential Fit calls; each call owns a fresh swarm and result.
type Driver struct {
	cfg      Config
	strategy swarm.Strategy
	scorer   search.Scorer
	njobs    int
	logger   *logging.Logger
}

// New validates the configuration and builds a driver. Configuration
// errors are fatal and reported immediately, never retried.
func New(cfg Config) (*Driver, error) {
	if cfg.Space != nil && cfg.SelectFeatures {
		return nil, search.NewError("configure either a search space or feature selection, not both").WithComponent("driver")
	}
	if cfg.Space == nil && !cfg.SelectFeatures {
		return nil, search.NewError("no search configured: set a search space or enable feature selection").WithComponent("driver")
	}
	if cfg.Space != nil {
		if err := cfg.Space.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Factory == nil {
		return nil, search.NewError("estimator factory is required").WithComponent("driver")
	}
	if cfg.NParticles < 1 {
		return nil, search.NewErrorf("n_particles must be positive, got %d", cfg.NParticles).WithComponent("driver")
	}
	if cfg.MaxIter < 1 {
		return nil, search.NewErrorf("max_iter must be positive, got %d", cfg.MaxIter).WithComponent("driver")
	}
	if cfg.Patience < 0 {
		return nil, search.NewErrorf("patience must not be negative, got %d", cfg.Patience).WithComponent("driver")
	}
	if cfg.Folds < 2 {
		cfg.Folds = 5
	}

	strategy, err := swarm.ForName(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	scorer := cfg.Scorer
	if scorer == nil {
		scorer, err = cv.ScorerByName(cfg.Scoring)
		if err != nil {
			return nil, err
		}
	}

	njobs := cfg.NJobs
	if njobs < 1 {
		njobs = runtime.NumCPU()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New(logging.WarnLevel, os.Stderr)
	}

	return &Driver{
		cfg:      cfg,
		strategy: strategy,
		scorer:   scorer,
		njobs:    njobs,
		logger:   logger,
	}, nil
}

// Fit runs the search over X (rows = samples) and the aligned target
// vector y, returning the immutable result of the best candidate found.
func (d *Driver) Fit(ctx context.Context, X *mat.Dense, y []float64) (*search.Result, error) {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, search.NewError("X must not be empty").WithComponent("driver").WithOperation("fit")
	}
	if rows != len(y) {
		return nil, search.NewErrorf("X has %d rows but y has %d entries", rows, len(y)).WithComponent("driver").WithOperation("fit")
	}

	dims := cols
	if d.cfg.Space != nil {
		dims = d.cfg.Space.Len()
	}

	folds, err := cv.KFold{NSplits: d.cfg.Folds, Seed: d.cfg.Seed}.Split(rows)
	if err != nil {
		return nil, err
	}
	evaluator := cv.NewEvaluator(X, y, d.cfg.Factory, d.scorer, folds, d.logger)

	rng := rand.New(rand.NewSource(d.cfg.Seed))
	sw := swarm.New(d.cfg.NParticles, dims, d.cfg.MaxIter, rng)

	d.logger.Info("search started", map[string]interface{}{
		"particles": d.cfg.NParticles,
		"axes":      dims,
		"max_iter":  d.cfg.MaxIter,
		"strategy":  d.strategyName(),
		"folds":     d.cfg.Folds,
		"workers":   d.njobs,
	})

	metrics.SearchesRunning.Inc()
	defer metrics.SearchesRunning.Dec()

	iterations := 0
	stopped := false
	stall := 0
	for it := 0; it < d.cfg.MaxIter; it++ {
		if err := ctx.Err(); err != nil {
			return nil, search.WrapError(err, "search cancelled").WithComponent("driver").WithOperation("fit")
		}
		sw.Iter = it

		vals, err := d.evaluateGeneration(evaluator, sw)
		if err != nil {
			return nil, err
		}
		// Barrier reached: every particle of this generation is scored
		// before any best is updated or any position moves.
		improved := sw.Commit(vals)
		metrics.Generations.Inc()
		iterations = it + 1

		d.logger.Debug("generation done", map[string]interface{}{
			"iteration":  it,
			"best_score": sw.BestVal,
			"improved":   improved,
		})

		if d.cfg.Patience > 0 {
			if improved {
				stall = 0
			} else {
				stall++
				if stall >= d.cfg.Patience {
					stopped = true
					break
				}
			}
		}

		if it < d.cfg.MaxIter-1 {
			d.strategy.Move(sw)
		}
	}

	if math.IsInf(sw.BestVal, -1) {
		return nil, search.WrapError(search.ErrNoViableCandidate,
			fmt.Sprintf("%d particles over %d generations", d.cfg.NParticles, iterations)).
			WithComponent("driver").WithOperation("fit")
	}

	result, err := d.finalize(evaluator, sw)
	if err != nil {
		return nil, err
	}
	result.Iterations = iterations
	result.Stopped = stopped

	d.logger.Info("search finished", map[string]interface{}{
		"best_score": result.BestScore,
		"iterations": result.Iterations,
		"stopped":    result.Stopped,
	})
	return result, nil
}

// evaluateGeneration scores every particle concurrently, bounded by the
// worker count. Candidate failures never surface here; they come back as
// the sentinel fitness. A worker panic is a backend failure and aborts
// the run, since the barrier cannot proceed with missing results.
func (d *Driver) evaluateGeneration(evaluator *cv.Evaluator, sw *swarm.Swarm) ([]float64, error) {
	n := len(sw.Particles)
	vals := make([]float64, n)

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var workerErr error
	workers := d.njobs
	if workers > n {
		workers = n
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					mu.Lock()
					if workerErr == nil {
						workerErr = search.NewErrorf("evaluation worker panicked: %v", rec).WithComponent("driver")
					}
					mu.Unlock()
				}
			}()
			for i := range jobs {
				vals[i] = d.evaluate(evaluator, sw.Particles[i].Pos)
			}
		}()
	}
	wg.Wait()

	if workerErr != nil {
		return nil, workerErr
	}
	return vals, nil
}

func (d *Driver) evaluate(evaluator *cv.Evaluator, pos []float64) float64 {
	if d.cfg.Space != nil {
		return evaluator.Params(d.cfg.Space.Decode(pos))
	}
	return evaluator.Features(space.Mask(pos))
}

// finalize decodes the global best and computes its held-out class
// probabilities for reporting.
func (d *Driver) finalize(evaluator *cv.Evaluator, sw *swarm.Swarm) (*search.Result, error) {
	result := &search.Result{BestScore: sw.BestVal}

	var params map[string]any
	var mask []int
	if d.cfg.Space != nil {
		params = d.cfg.Space.Decode(sw.BestPos)
		result.BestParams = params
	} else {
		mask = space.Mask(sw.BestPos)
		result.BestFeatures = mask
	}

	proba, err := evaluator.Proba(params, mask)
	if err != nil {
		return nil, search.WrapError(err, "computing held-out probabilities for best candidate").
			WithComponent("driver").WithOperation("finalize")
	}
	result.BestProba = proba
	return result, nil
}

func (d *Driver) strategyName() string {
	if d.cfg.Strategy == "" {
		return "vanilla"
	}
	return d.cfg.Strategy
}
