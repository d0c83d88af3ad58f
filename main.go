package main

import "apipulse/cmd"

func main() {
	cmd.Execute()
}
