package qnn

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/qnn.go/pkg/cli/sh"
	"github.com/robotalks/qnn.go/pkg/tensor"
)

// InferResult is the JSON output of infer.
type InferResult struct {
	Output []int `json:"output"`
	Class  int   `json:"class"`
}

// BenchResult is the JSON output of bench.
type BenchResult struct {
	Count   int           `json:"count"`
	Failed  int           `json:"failed"`
	Elapsed time.Duration `json:"elapsed_ns"`
	PerSec  float64       `json:"per_sec"`
}

func infer(c *ishell.Context, input tensor.Vec8) (tensor.Dist, error) {
	s := sh.ShellFrom(c)
	ctx, cancel := context.WithTimeout(s.Conn.Ctx, s.Config.Timeout)
	defer cancel()
	return s.Conn.Conn.Infer(ctx, input)
}

var (
	// InferCmd runs one inference.
	InferCmd = ishell.Cmd{
		Name:    "infer",
		Aliases: []string{"x"},
		Help:    "VALUE... (int8, missing ones are 0)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			input, err := tensor.ParseVec8(c.Args, s.Conn.Conn.InputDim())
			if err != nil {
				c.Err(err)
				return
			}
			output, err := infer(c, input)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				res := InferResult{Output: make([]int, len(output)), Class: output.ArgMax()}
				for n, v := range output {
					res.Output[n] = int(v)
				}
				sh.PrintJSON(c, &res)
				return
			}
			c.Printf("%v class=%d\n", []uint8(output), output.ArgMax())
		}),
	}

	// BenchCmd runs inferences with random inputs.
	BenchCmd = ishell.Cmd{
		Name:    "bench",
		Aliases: []string{"b"},
		Help:    "[COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			count := 100
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil || val <= 0 {
					c.Err(fmt.Errorf("Invalid COUNT: %q", c.Args[0]))
					return
				}
				count = val
			}
			res := BenchResult{Count: count}
			input := make(tensor.Vec8, s.Conn.Conn.InputDim())
			start := time.Now()
			for n := 0; n < count; n++ {
				for i := range input {
					input[i] = int8(rand.Intn(256) - 128)
				}
				if _, err := infer(c, input); err != nil {
					res.Failed++
				}
			}
			res.Elapsed = time.Since(start)
			res.PerSec = float64(count) / res.Elapsed.Seconds()
			if s.OutputJSON {
				sh.PrintJSON(c, &res)
				return
			}
			c.Printf("%d inferences, %d failed, %s, %.1f/s\n", res.Count, res.Failed, res.Elapsed, res.PerSec)
		}),
	}
)

func init() {
	sh.AddCmds(
		&InferCmd,
		&BenchCmd,
	)
}
