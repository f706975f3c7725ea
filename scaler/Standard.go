// Package scaler implements feature normalization of observations
package scaler

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotFitted is reported when a Standard scaler is used before it
// has been fit
var ErrNotFitted = errors.New("scaler not fitted")

// Standard standardizes observations by removing the mean of each
// feature and dividing by its population standard deviation. Features
// with no variance are only centred.
type Standard struct {
	mean  []float64
	scale []float64
}

// standardData is the persisted form of a Standard scaler
type standardData struct {
	Mean  []float64 `msgpack:"mean"`
	Scale []float64 `msgpack:"scale"`
}

// NewStandard returns a new, unfitted Standard scaler
func NewStandard() *Standard {
	return &Standard{}
}

// Fit computes the mean and standard deviation of each feature in obs,
// where each row of obs is a single observation.
func (s *Standard) Fit(obs mat.Matrix) error {
	rows, cols := obs.Dims()
	if rows < 1 || cols < 1 {
		return fmt.Errorf("fit: need at least one observation")
	}

	mean := make([]float64, cols)
	scale := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, obs)

		var variance float64
		mean[j], variance = stat.MeanVariance(col, nil)
		if rows > 1 {
			// Population variance
			variance *= float64(rows-1) / float64(rows)
		} else {
			variance = 0
		}

		std := math.Sqrt(variance)
		if std <= 1e-12*math.Max(1, math.Abs(mean[j])) {
			std = 1
		}
		scale[j] = std
	}

	s.mean = mean
	s.scale = scale
	return nil
}

// Fitted returns whether the scaler has been fit
func (s *Standard) Fitted() bool {
	return s.mean != nil
}

// Features returns the number of features the scaler was fit on
func (s *Standard) Features() int {
	return len(s.mean)
}

// Mean returns a copy of the mean of each feature
func (s *Standard) Mean() []float64 {
	return append([]float64{}, s.mean...)
}

// Scale returns a copy of the standard deviation used to scale each
// feature
func (s *Standard) Scale() []float64 {
	return append([]float64{}, s.scale...)
}

// Transform returns a new vector holding the standardized obs
func (s *Standard) Transform(obs mat.Vector) (*mat.VecDense, error) {
	if !s.Fitted() {
		return nil, fmt.Errorf("transform: %w", ErrNotFitted)
	}
	if obs.Len() != len(s.mean) {
		return nil, fmt.Errorf("transform: invalid observation size "+
			"\n\twant(%v)\n\thave(%v)", len(s.mean), obs.Len())
	}

	out := mat.NewVecDense(obs.Len(), nil)
	for i := range s.mean {
		out.SetVec(i, (obs.AtVec(i)-s.mean[i])/s.scale[i])
	}
	return out, nil
}

// Save writes the scaler to a file as msgpack
func (s *Standard) Save(filename string) error {
	if !s.Fitted() {
		return fmt.Errorf("save: %w", ErrNotFitted)
	}

	data, err := msgpack.Marshal(standardData{Mean: s.mean, Scale: s.scale})
	if err != nil {
		return fmt.Errorf("save: could not encode scaler: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Load reads a scaler previously written with Save
func (s *Standard) Load(filename string) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	var data standardData
	if err := msgpack.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("load: could not decode scaler: %w", err)
	}
	if len(data.Mean) == 0 || len(data.Mean) != len(data.Scale) {
		return fmt.Errorf("load: corrupt scaler with %v means and %v "+
			"scales", len(data.Mean), len(data.Scale))
	}
	for i, scale := range data.Scale {
		if scale <= 0 {
			return fmt.Errorf("load: corrupt scaler with scale %v for "+
				"feature %v", scale, i)
		}
	}

	s.mean = data.Mean
	s.scale = data.Scale
	return nil
}
