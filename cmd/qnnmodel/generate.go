package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/urfave/cli/v3"

	"github.com/robotalks/qnn.go/pkg/model"
)

func generateCmd() *cli.Command {
	var (
		outPath                        string
		inputDim, hiddenDim, outputDim int
		seed                           int64
		shift                          int
		zero                           bool
	)
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate a model with random (or zero) parameters for testing",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output artifact", Destination: &outPath, Required: true},
			&cli.IntFlag{Name: "input-dim", Aliases: []string{"n"}, Usage: "input dimension N", Value: 64, Destination: &inputDim},
			&cli.IntFlag{Name: "hidden-dim", Usage: "hidden dimension H", Value: 32, Destination: &hiddenDim},
			&cli.IntFlag{Name: "output-dim", Aliases: []string{"c"}, Usage: "output dimension C", Value: 10, Destination: &outputDim},
			&cli.IntFlag{Name: "shift", Usage: "requantization shift of the hidden layer", Value: 7, Destination: &shift},
			&cli.Int64Flag{Name: "seed", Usage: "random seed", Value: 1, Destination: &seed},
			&cli.BoolFlag{Name: "zero", Usage: "all parameters zero", Destination: &zero},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if shift < 0 || shift > 31 {
				return cli.Exit("error: shift out of range [0, 31]", 1)
			}
			layers := model.ZeroLayers(inputDim, hiddenDim, outputDim)
			layers[0].Name, layers[1].Name = "hidden", "output"
			layers[0].Shift = uint8(shift)
			if !zero {
				rnd := rand.New(rand.NewSource(seed))
				for n := range layers {
					for i := range layers[n].Weights {
						layers[n].Weights[i] = int8(rnd.Intn(256) - 128)
					}
					for i := range layers[n].Biases {
						layers[n].Biases[i] = rnd.Int31n(1<<12) - 1<<11
					}
				}
			}
			if _, err := model.Build(layers); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err := model.SaveFile(outPath, layers); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			fmt.Printf("%s: %d-%d-%d\n", outPath, inputDim, hiddenDim, outputDim)
			return nil
		},
	}
}
