package main

import (
	"os"

	"github.com/rflorenc/workflow-transfer-workbench/cmd/wfctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
