// Package main is the urdf-simplify command.
package main

import (
	"os"

	"go.viam.com/collisionsimplify/cli"
	"go.viam.com/collisionsimplify/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.NewLogger("urdf-simplify").Fatal(err)
	}
}
