package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Value tracks and saves the portfolio value at the end of each episode
// in an experiment. Values are cached in memory and written to disk as
// a gob encoded []float64 by Save, which can be read back with LoadData.
type Value struct {
	values   []float64
	filename string
}

// NewValue creates and returns a new *Value Tracker which saves its data
// at the specified location filename
func NewValue(filename string) *Value {
	return &Value{filename: filename}
}

// Track caches the end of episode value
func (v *Value) Track(ep Episode) error {
	v.values = append(v.values, ep.Value)
	return nil
}

// Values returns a copy of the values tracked so far
func (v *Value) Values() []float64 {
	return append([]float64{}, v.values...)
}

// Save saves the data tracked by the Value Tracker to disk.
func (v *Value) Save() error {
	// Open the file to save to
	file, err := os.Create(v.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %w", err)
	}
	defer file.Close()

	// Encode and save the file
	en := gob.NewEncoder(file)
	if err = en.Encode(v.values); err != nil {
		return fmt.Errorf("save: could not encode values: %w", err)
	}
	return file.Close()
}
