package main

import "github.com/nwpack/nwpack/cmd/nwpack/cmd"

func main() {
	cmd.Execute()
}
