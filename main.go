package main

import "greentic.software/resolver/cmd"

func main() {
	cmd.Execute()
}
