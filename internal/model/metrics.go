package model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// LogLoss is the mean negative log-likelihood of labels y under probs.
func LogLoss(probs, y []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	var loss float64
	for i, p := range probs {
		p = math.Min(math.Max(p, 1e-12), 1-1e-12)
		if y[i] == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(len(probs))
}

// Accuracy is the fraction of labels matched at the 0.5 threshold.
func Accuracy(probs, y []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	var correct int
	for i, p := range probs {
		if (p >= 0.5) == (y[i] == 1) {
			correct++
		}
	}
	return float64(correct) / float64(len(probs))
}

// AUC is the area under the ROC curve of probs against labels y. Degenerate
// label sets (all wins or all losses) report 0.5 so the value stays finite.
func AUC(probs, y []float64) float64 {
	var pos, neg int
	for _, label := range y {
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}

	// stat.ROC wants scores ascending with classes aligned.
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] < probs[idx[b]] })

	scores := make([]float64, len(probs))
	classes := make([]bool, len(probs))
	for i, j := range idx {
		scores[i] = probs[j]
		classes[i] = y[j] == 1
	}

	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}
