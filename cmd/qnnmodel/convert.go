package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robotalks/qnn.go/pkg/model"
)

func convertCmd() *cli.Command {
	var inPath, outPath string
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert a model between encodings, selected by file extension",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "input artifact", Destination: &inPath, Required: true},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output artifact", Destination: &outPath, Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			m, err := model.LoadFile(inPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err := model.SaveFile(outPath, m.Layers()); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			fmt.Printf("%s -> %s (%d params)\n", inPath, outPath, m.NumParams())
			return nil
		},
	}
}
