package main

import (
	"github.com/loankit/docpipe/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
