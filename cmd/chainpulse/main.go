package main

import "github.com/chainpulse/chainpulse/internal/cli"

func main() {
	cli.Execute()
}
