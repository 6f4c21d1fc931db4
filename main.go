package main

import "github.com/edgefleet/fleetctl/cmd"

func main() {
	cmd.Execute()
}
