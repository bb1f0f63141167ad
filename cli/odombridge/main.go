// Package main is the CLI command itself.
package main

import (
	"os"

	"go.viam.com/odombridge/cli"
	"go.viam.com/odombridge/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.Global().Fatal(err)
	}
}
