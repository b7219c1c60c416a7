// Package model fits the per-god logistic regression. The optimization is
// handed to gonum's L-BFGS; this package only supplies the regularized
// log-loss and its gradient.
package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Options are the fit hyperparameters.
type Options struct {
	// Lambda scales the L2 penalty on the item weights. The intercept is
	// never penalized.
	Lambda        float64
	MaxIterations int
}

// Fit is a trained model. Weights[0] is the intercept; Weights[1:] line up
// with the design matrix columns.
type Fit struct {
	Weights    []float64
	Iterations int
	Converged  bool
}

// Train fits L2-regularized logistic regression on X (examples in rows,
// indicator features in columns, no intercept column) against labels y in
// {0, 1}.
func Train(X *mat.Dense, y []float64, opts Options) (*Fit, error) {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return nil, errors.New("empty design matrix")
	}
	if len(y) != n {
		return nil, fmt.Errorf("labels %d do not match %d examples", len(y), n)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 500
	}

	problem := objective(X, y, opts.Lambda)
	x0 := make([]float64, d+1)
	settings := &optimize.Settings{
		MajorIterations: opts.MaxIterations,
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if err != nil && result == nil {
		return nil, fmt.Errorf("minimize: %w", err)
	}

	fit := &Fit{
		Weights:    result.X,
		Iterations: result.Stats.MajorIterations,
		Converged:  err == nil && result.Status != optimize.IterationLimit,
	}
	return fit, nil
}

// objective builds the regularized mean log-loss and its analytic gradient
// over theta = [intercept, weights...].
func objective(X *mat.Dense, y []float64, lambda float64) optimize.Problem {
	n, _ := X.Dims()
	invN := 1.0 / float64(n)

	return optimize.Problem{
		Func: func(theta []float64) float64 {
			var loss float64
			for i := 0; i < n; i++ {
				z := theta[0] + dot(theta[1:], X.RawRowView(i))
				p := sigmoid(z)
				if y[i] == 1 {
					loss -= math.Log(p)
				} else {
					loss -= math.Log(1 - p)
				}
			}
			loss *= invN
			for _, w := range theta[1:] {
				loss += lambda * w * w
			}
			return loss
		},
		Grad: func(grad, theta []float64) {
			for j := range grad {
				grad[j] = 0
			}
			for i := 0; i < n; i++ {
				row := X.RawRowView(i)
				z := theta[0] + dot(theta[1:], row)
				residual := sigmoid(z) - y[i]
				grad[0] += residual
				for j, v := range row {
					grad[j+1] += residual * v
				}
			}
			for j := range grad {
				grad[j] *= invN
			}
			for j := 1; j < len(grad); j++ {
				grad[j] += 2 * lambda * theta[j]
			}
		},
	}
}

// Predict returns the win probability for one feature row.
func (f *Fit) Predict(row []float64) float64 {
	return sigmoid(f.Weights[0] + dot(f.Weights[1:], row))
}

// PredictAll returns win probabilities for every row of X.
func (f *Fit) PredictAll(X *mat.Dense) []float64 {
	n, _ := X.Dims()
	probs := make([]float64, n)
	for i := 0; i < n; i++ {
		probs[i] = f.Predict(X.RawRowView(i))
	}
	return probs
}

// sigmoid clamps z so the result never saturates to exactly 0 or 1, which
// keeps the log-loss finite.
func sigmoid(z float64) float64 {
	if z > 20 {
		z = 20
	}
	if z < -20 {
		z = -20
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
