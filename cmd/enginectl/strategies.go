package main

import (
	"encoding/json"
	"os"

	"github.com/reachnet/strategyengine/catalog"
)

// strategyFile is the shape of the --strategies JSON document: this is CLI
// plumbing, a convenience decoder for driving enginectl from a flat file,
// not the external configuration loader (see catalog.StrategyLoader).
type strategyFile struct {
	Strategies []catalog.Strategy `json:"strategies"`
}

func loadStrategies(path string) (map[string]catalog.Strategy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc strategyFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	out := make(map[string]catalog.Strategy, len(doc.Strategies))
	for _, s := range doc.Strategies {
		out[s.ID] = s
	}
	return out, nil
}
