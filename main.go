package main

import "github.com/pbarbosa/descobre/cmd"

func main() {
	cmd.Execute()
}
