package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robotalks/qnn.go/pkg/model"
	"github.com/robotalks/qnn.go/pkg/pipeline"
	"github.com/robotalks/qnn.go/pkg/tensor"
)

func inferCmd() *cli.Command {
	var (
		modelPath string
		accWidth  int
		scale     int
		showTrace bool
	)
	return &cli.Command{
		Name:      "infer",
		Usage:     "Run one inference locally",
		ArgsUsage: "VALUE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "model artifact", Destination: &modelPath, Required: true},
			&cli.IntFlag{Name: "acc-width", Usage: "accumulator width in bits (0 = never saturating)", Destination: &accWidth},
			&cli.IntFlag{Name: "scale", Usage: "response scale", Value: 255, Destination: &scale},
			&cli.BoolFlag{Name: "trace", Usage: "print intermediate vectors", Destination: &showTrace},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			m, err := model.LoadFile(modelPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			p, err := pipeline.New(m, pipeline.Options{AccumulatorWidth: accWidth, Scale: scale, Trace: showTrace})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			input, err := tensor.ParseVec8(c.Args().Slice(), m.InputDim())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			t, err := p.Begin()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err = t.Load(input); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			output, err := t.Run()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if tr := t.Trace(); tr != nil {
				fmt.Printf("pre-activation: %v\n", tr.PreActivation)
				fmt.Printf("rectified:      %v\n", tr.Rectified)
				fmt.Printf("hidden:         %v\n", tr.Hidden)
				fmt.Printf("scores:         %v\n", tr.Scores)
			}
			fmt.Printf("output: %v class=%d sum=%d\n", []uint8(output), output.ArgMax(), output.Sum())
			if err = t.Ack(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if p.Stats().ZeroSumGuards > 0 {
				fmt.Println("(all scores zero, uniform output)")
			}
			return nil
		},
	}
}
