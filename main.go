// Command hotspot ranks the files of a Git repository by churn, size and ownership.
package main

import (
	"github.com/gitrisk/hotspot/cmd"
	"github.com/gitrisk/hotspot/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Command failed", err)
	}
}
