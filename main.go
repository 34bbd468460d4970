package main

import "github.com/notargets/burgers2d/cmd"

func main() {
	cmd.Execute()
}
