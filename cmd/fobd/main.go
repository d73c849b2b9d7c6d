package main

import "fob_apiserver/internal/cmd"

func main() {
	cmd.Execute()
}
