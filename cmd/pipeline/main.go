package main

import "github.com/johnquangdev/interview-analyzer/internal/cli"

func main() {
	cli.Main()
}
