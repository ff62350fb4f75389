package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/reachnet/strategyengine/metrics"
	"github.com/reachnet/strategyengine/scorer"

	"github.com/olekukonko/tablewriter"
)

const ScoreCommandDescription = "Rank strategies by their latest measurement summaries"

type ScoreCommand struct {
	StrategiesCommand

	MeasurementsFile string `long:"measurements" required:"true" description:"path to a JSON file of per-strategy measurement summaries"`
}

func (c *ScoreCommand) Execute(args []string) error {
	if err := c.StrategiesCommand.Execute(nil); err != nil {
		return err
	}

	measurements, err := loadMeasurements(c.MeasurementsFile)
	if err != nil {
		return err
	}

	weights := scorer.DefaultWeights()
	scores := make([]scorer.Score, 0, len(measurements))
	for id, m := range measurements {
		s, ok := c.lookup(id)
		if !ok {
			continue
		}
		sc := scorer.Compute(id, s.WeightHint, m, weights)
		metrics.StrategyScore.WithLabelValues(id).Set(sc.Value)
		scores = append(scores, sc)
	}

	scoreToText(scorer.Rank(scores))
	return nil
}

func scoreToText(ranked []scorer.Score) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rank", "Strategy ID", "Score", "Weight Hint"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i, s := range ranked {
		line := fmt.Sprintf("%d\t%s\t%.2f\t%d", i+1, s.StrategyID, s.Value, s.WeightHint)
		table.Append(strings.Split(line, "\t"))
	}

	table.Render()
}
