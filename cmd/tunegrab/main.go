package main

import "github.com/avolkov/tunegrab/internal/cli"

func main() {
	cli.Main()
}
