package main

import "github.com/tradewave-network/tradewave/internal/cli"

func main() {
	cli.Execute()
}
