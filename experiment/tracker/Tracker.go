// Package tracker implements Trackers, which track and save data in an
// experiment
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"
)

// Episode summarizes a single finished episode of an experiment
type Episode struct {
	Number   int     // Starting from 1
	Value    float64 // Portfolio value at the end of the episode
	Steps    int
	Duration time.Duration
	Epsilon  float64 // Behaviour policy exploration rate, 0 when testing
}

// Interface Tracker keeps track of experiment data and saves the data
// after the experiment has finished
type Tracker interface {
	Track(ep Episode) error
	Save() error
}

// LoadData loads and returns the data saved by a Value Tracker
func LoadData(filename string) ([]float64, error) {
	// Open file
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %w", err)
	}
	defer file.Close()

	// Create the decoder and the variable to store the data in
	dec := gob.NewDecoder(file)
	var data []float64

	// Decode the data
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %w", err)
	}

	return data, nil
}
