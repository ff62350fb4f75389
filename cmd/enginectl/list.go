package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/reachnet/strategyengine/engine"

	"github.com/olekukonko/tablewriter"
)

const ListCommandDescription = "List every currently running strategy"

type ListCommand struct{}

func (c *ListCommand) Execute(args []string) error {
	listToText(sharedEngine.ListRunning())
	return nil
}

func listToText(rows []engine.RunningStrategy) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Strategy ID", "Family", "Uptime", "PID"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range rows {
		line := fmt.Sprintf("%s\t%s\t%s\t%d", r.StrategyID, r.Family, time.Since(r.StartedAt), r.PID)
		table.Append(strings.Split(line, "\t"))
	}

	table.Render()
}
