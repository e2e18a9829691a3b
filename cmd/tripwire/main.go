package main

import "github.com/ogulcanaydogan/budget-tripwire/internal/cli"

func main() {
	cli.Execute()
}
