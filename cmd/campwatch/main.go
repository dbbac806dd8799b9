package main

import "github.com/example/campwatch/cmd"

func main() {
	cmd.Execute()
}
