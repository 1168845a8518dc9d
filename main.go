package main

import "github.com/clipask/clipask/cmd"

func main() {
	cmd.Execute()
}
