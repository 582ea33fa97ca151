package main

import "github.com/dshills/transllm/internal/cli"

func main() {
	cli.Execute()
}
