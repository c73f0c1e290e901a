package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robotalks/qnn.go/pkg/fixed"
	"github.com/robotalks/qnn.go/pkg/model"
)

func inspectCmd() *cli.Command {
	var (
		modelPath   string
		showWeights bool
	)
	return &cli.Command{
		Name:  "inspect",
		Usage: "Show topology and parameter statistics of a model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "model artifact (.qnn, .pb, .yaml, .json)",
				Destination: &modelPath,
				Required:    true,
			},
			&cli.BoolFlag{Name: "weights", Usage: "print weight rows and biases", Destination: &showWeights},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			m, err := model.LoadFile(modelPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			fmt.Printf("File: %s\n", modelPath)
			fmt.Printf("Topology: %d-%d-%d | params=%d | accumulator=%d bits\n",
				m.InputDim(), m.HiddenDim(), m.OutputDim(), m.NumParams(),
				fixed.RequiredWidth(max(m.InputDim(), m.HiddenDim())))
			for n, l := range m.Layers() {
				fmt.Println()
				name := l.Name
				if name == "" {
					name = fmt.Sprintf("layer%d", n)
				}
				fmt.Printf("%s: %d -> %d, activation=%s, shift=%d\n", name, l.InDim, l.OutDim, l.Activation, l.Shift)
				wmin, wmax, zeros := weightStats(l.Weights)
				fmt.Printf("  weights: min=%d max=%d zeros=%d/%d\n", wmin, wmax, zeros, len(l.Weights))
				bmin, bmax := biasRange(l.Biases)
				fmt.Printf("  biases:  min=%d max=%d\n", bmin, bmax)
				if showWeights {
					for i := 0; i < l.InDim; i++ {
						fmt.Printf("  w[%d] %v\n", i, l.Row(i))
					}
					fmt.Printf("  b    %v\n", l.Biases)
				}
			}
			return nil
		},
	}
}

func weightStats(weights []int8) (wmin, wmax int8, zeros int) {
	for n, w := range weights {
		if n == 0 || w < wmin {
			wmin = w
		}
		if n == 0 || w > wmax {
			wmax = w
		}
		if w == 0 {
			zeros++
		}
	}
	return
}

func biasRange(biases []int32) (bmin, bmax int32) {
	for n, b := range biases {
		if n == 0 || b < bmin {
			bmin = b
		}
		if n == 0 || b > bmax {
			bmax = b
		}
	}
	return
}
