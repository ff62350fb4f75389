package main

import (
	"context"
	"fmt"

	"github.com/reachnet/strategyengine/engine"
)

const StartCommandDescription = "Start a strategy by id"

type StartCommand struct {
	StrategiesCommand

	ExtraHostList string `long:"extra-hostlist" description:"optional secondary host-list path"`

	Args struct {
		StrategyID string `positional-arg-name:"strategy-id" required:"true"`
	} `positional-args:"yes"`
}

func (c *StartCommand) Execute(args []string) error {
	if err := c.StrategiesCommand.Execute(nil); err != nil {
		return err
	}

	s, ok := c.lookup(c.Args.StrategyID)
	if !ok {
		return fmt.Errorf("no strategy %q in %s", c.Args.StrategyID, c.StrategiesFile)
	}

	err := sharedEngine.Start(context.Background(), s, c.ExtraHostList)
	fmt.Printf("%s: %s\n", c.Args.StrategyID, engine.ExitCode(err))
	return err
}
