package main

import "github.com/javanhut/cvs/cli"

func main() {
	cli.Execute()
}
