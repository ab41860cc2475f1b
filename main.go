package main

import "github.com/outreachkit/prospector/cmd"

func main() {
	cmd.Execute()
}
