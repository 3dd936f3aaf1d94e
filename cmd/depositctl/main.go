package main

import (
	"github.com/eclipse-pass/deposit-orchestrator/cmd/depositctl/cmd"
)

func main() {
	cmd.Execute()
}
