package main

import "github.com/gitalky/gitalky/cmd"

func main() {
	cmd.Execute()
}
