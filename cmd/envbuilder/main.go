package main

import "envbuilder/internal/cli"

func main() {
	cli.Execute()
}
