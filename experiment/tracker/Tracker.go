// Package tracker implements Trackers, which track and save data in an
// experiment
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/trafficrl/environment"
	ts "github.com/samuelfneumann/trafficrl/timestep"
)

// Interface Tracker keeps track of experiment data and saves the data
// after the experiment has finished. Track is called on every TimeStep
// of an episode, including the first, along with the metrics the
// environment reported for that TimeStep.
type Tracker interface {
	Track(t ts.TimeStep, info environment.Info)
	Save() error

	// Data returns the per-episode data tracked so far
	Data() []float64
}

// save gob encodes data to filename
func save(filename string, data []float64) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	if err = gob.NewEncoder(file).Encode(data); err != nil {
		return fmt.Errorf("save: could not encode data: %v", err)
	}
	return nil
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %v", err)
	}
	defer file.Close()

	var data []float64
	if err = gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %v", err)
	}
	return data, nil
}
