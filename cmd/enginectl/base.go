package main

import (
	"github.com/reachnet/strategyengine/catalog"
	"github.com/reachnet/strategyengine/engine"
)

// StrategiesCommand is embedded by every subcommand that needs the
// strategy catalog loaded from disk.
type StrategiesCommand struct {
	StrategiesFile string `long:"strategies" default:"strategies.json" description:"path to a JSON file listing strategy descriptors"`

	byID map[string]catalog.Strategy
}

func (c *StrategiesCommand) Execute(args []string) error {
	strategies, err := loadStrategies(c.StrategiesFile)
	if err != nil {
		return err
	}
	c.byID = strategies
	return nil
}

func (c *StrategiesCommand) lookup(id string) (catalog.Strategy, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// sharedEngine is the one registry enginectl operates, built when the
// program starts; each invocation of the binary is a single operation, so
// there is no need to tear it down explicitly beyond process exit.
var sharedEngine = engine.New(engine.ConfigFromEnv())
