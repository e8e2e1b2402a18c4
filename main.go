package main

import "github.com/treesh/treesh/cmd"

func main() {
	cmd.Execute()
}
