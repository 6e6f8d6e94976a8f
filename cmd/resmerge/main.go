package main

import "resmerge/internal/cli"

func main() {
	cli.Execute()
}
