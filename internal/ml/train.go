package ml

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"phishguard/internal/features"
)

// Options controls a training run.
type Options struct {
	// Grid runs a small hyperparameter search instead of the fast default.
	Grid bool
	// Seed fixes the train/test split and initialization; 0 means the
	// default deterministic seed.
	Seed int64
}

// Metrics summarizes a completed training run.
type Metrics struct {
	Accuracy    float64 `json:"accuracy"`
	TrainedRows int     `json:"trained_rows"`
	TestRows    int     `json:"test_rows"`
}

type hyperparams struct {
	learningRate float64
	epochs       int
}

var (
	defaultParams = hyperparams{learningRate: 0.1, epochs: 200}
	gridParams    = []hyperparams{
		{0.03, 200}, {0.03, 400},
		{0.1, 100}, {0.1, 200}, {0.1, 400},
		{0.3, 100}, {0.3, 200},
	}
)

const testFraction = 0.2

// Train fits a logistic-regression classifier on the dataset and evaluates
// it on a held-out split. The returned model carries the current feature
// schema fingerprint; publication-time validation belongs to the caller.
func Train(samples []Sample, extractor *features.Extractor, opts Options) (*Model, Metrics, error) {
	if len(samples) < 10 {
		return nil, Metrics{}, fmt.Errorf("dataset too small: %d rows (need at least 10)", len(samples))
	}
	positives := 0
	for _, s := range samples {
		positives += s.Label
	}
	if positives == 0 || positives == len(samples) {
		return nil, Metrics{}, fmt.Errorf("dataset must contain both classes (got %d/%d positive)", positives, len(samples))
	}

	seed := opts.Seed
	if seed == 0 {
		seed = 42
	}
	rng := rand.New(rand.NewSource(seed))

	// Extract once, then split deterministically.
	x := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i, s := range samples {
		x[i] = extractor.Extract(s.URL).Numeric()
		y[i] = s.Label
	}
	order := rng.Perm(len(samples))

	testN := int(float64(len(samples)) * testFraction)
	if testN < 1 {
		testN = 1
	}
	trainN := len(samples) - testN

	trainX, trainY := make([][]float64, 0, trainN), make([]int, 0, trainN)
	testX, testY := make([][]float64, 0, testN), make([]int, 0, testN)
	for i, idx := range order {
		if i < trainN {
			trainX = append(trainX, x[idx])
			trainY = append(trainY, y[idx])
		} else {
			testX = append(testX, x[idx])
			testY = append(testY, y[idx])
		}
	}

	means, scales := fitScaler(trainX)

	candidates := []hyperparams{defaultParams}
	if opts.Grid {
		candidates = gridParams
	}

	var best *Model
	bestAcc := math.Inf(-1)
	for _, hp := range candidates {
		weights, bias := fitLogistic(trainX, trainY, means, scales, hp)
		m := &Model{
			Version:           time.Now().UTC().Format("20060102-150405"),
			SchemaFingerprint: features.Fingerprint(),
			Threshold:         0.5,
			FeatureNames:      features.Names(),
			Weights:           weights,
			Bias:              bias,
			Means:             means,
			Scales:            scales,
			TrainedRows:       trainN,
			TestRows:          testN,
			TrainedAt:         time.Now().UTC(),
		}
		acc := evaluate(m, testX, testY)
		if acc > bestAcc {
			bestAcc = acc
			best = m
		}
	}
	best.Accuracy = bestAcc

	return best, Metrics{Accuracy: bestAcc, TrainedRows: trainN, TestRows: testN}, nil
}

// fitScaler computes per-feature mean and standard deviation on the
// training split. Zero-variance features get scale 1 so they standardize
// to zero instead of exploding.
func fitScaler(x [][]float64) (means, scales []float64) {
	n := len(x)
	dim := len(x[0])
	means = make([]float64, dim)
	scales = make([]float64, dim)
	for _, row := range x {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}
	for _, row := range x {
		for j, v := range row {
			d := v - means[j]
			scales[j] += d * d
		}
	}
	for j := range scales {
		scales[j] = math.Sqrt(scales[j] / float64(n))
		if scales[j] == 0 {
			scales[j] = 1
		}
	}
	return means, scales
}

// fitLogistic runs full-batch gradient descent on the standardized inputs.
func fitLogistic(x [][]float64, y []int, means, scales []float64, hp hyperparams) (weights []float64, bias float64) {
	n := len(x)
	dim := len(x[0])
	weights = make([]float64, dim)

	std := make([][]float64, n)
	for i, row := range x {
		std[i] = make([]float64, dim)
		for j, v := range row {
			std[i][j] = standardize(v, means[j], scales[j])
		}
	}

	gradW := make([]float64, dim)
	for epoch := 0; epoch < hp.epochs; epoch++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0
		for i, row := range std {
			z := bias
			for j, v := range row {
				z += weights[j] * v
			}
			err := sigmoid(z) - float64(y[i])
			for j, v := range row {
				gradW[j] += err * v
			}
			gradB += err
		}
		for j := range weights {
			weights[j] -= hp.learningRate * gradW[j] / float64(n)
		}
		bias -= hp.learningRate * gradB / float64(n)
	}
	return weights, bias
}

func evaluate(m *Model, x [][]float64, y []int) float64 {
	if len(x) == 0 {
		return 0
	}
	correct := 0
	for i, row := range x {
		z := m.Bias
		for j, w := range m.Weights {
			z += w * standardize(row[j], m.Means[j], m.Scales[j])
		}
		if m.Label(sigmoid(z)) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}
