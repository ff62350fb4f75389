package main

import (
	"encoding/json"
	"os"

	"github.com/reachnet/strategyengine/catalog"
)

// measurementFile is the shape of the --measurements JSON document given to
// the score subcommand: CLI plumbing standing in for the external health
// prober this module leaves out of scope (see catalog.HealthProber).
type measurementFile struct {
	Measurements map[string]catalog.MeasurementSummary `json:"measurements"`
}

func loadMeasurements(path string) (map[string]catalog.MeasurementSummary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc measurementFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc.Measurements, nil
}
