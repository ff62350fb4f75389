package main

import (
	"fmt"
	"time"

	"github.com/reachnet/strategyengine/engine"
)

const StopCommandDescription = "Stop a running strategy by id"

type StopCommand struct {
	Grace time.Duration `long:"grace" default:"5s" description:"soft-stop grace period before force-kill"`

	Args struct {
		StrategyID string `positional-arg-name:"strategy-id" required:"true"`
	} `positional-args:"yes"`
}

func (c *StopCommand) Execute(args []string) error {
	err := sharedEngine.Stop(c.Args.StrategyID, c.Grace)
	fmt.Printf("%s: %s\n", c.Args.StrategyID, engine.ExitCode(err))
	return err
}

const StopAllCommandDescription = "Stop every running strategy"

type StopAllCommand struct {
	Grace time.Duration `long:"grace" default:"5s" description:"soft-stop grace period before force-kill"`
}

func (c *StopAllCommand) Execute(args []string) error {
	err := sharedEngine.StopAll(c.Grace)
	fmt.Printf("stop-all: %s\n", engine.ExitCode(err))
	return err
}
