package main

import "github.com/outplayedgg/garrison-server/internal/cli"

func main() {
	cli.Execute()
}
