package main

import "github.com/iksnae/cursor-chatlog/cmd"

func main() {
	cmd.Execute()
}
