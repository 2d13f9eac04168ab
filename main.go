package main

import "github.com/notargets/vcflow/cmd"

func main() {
	cmd.Execute()
}
