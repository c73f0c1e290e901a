package main

import (
	"github.com/robotalks/qnn.go/pkg/cli/sh"
	"github.com/robotalks/qnn.go/pkg/config"

	_ "github.com/robotalks/qnn.go/pkg/cli/cmds/qnn"
)

//go-build: CGO_ENABLED=0

func init() {
	config.SetupHostFlags()
}

func main() {
	sh.Main()
}
