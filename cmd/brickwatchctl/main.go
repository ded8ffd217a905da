package main

import "github.com/brickwatch/brickwatch/internal/adapters/cli"

func main() {
	cli.Execute()
}
