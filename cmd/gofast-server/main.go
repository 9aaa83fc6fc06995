package main

import "gofast/internal/cli"

func main() {
	cli.Execute()
}
