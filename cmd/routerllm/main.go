// Package main is the entry point for the RouterLLM terminal client.
package main

import "github.com/routerllm/routerllm-tui/internal/cli"

func main() {
	cli.Execute()
}
