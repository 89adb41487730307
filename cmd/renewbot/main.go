package main

import "renewbot/cmd/renewbot/cmd"

func main() {
	cmd.Execute()
}
