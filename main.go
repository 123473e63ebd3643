package main

import "github.com/jcdickinson/snakedoc/cmd"

func main() {
	cmd.Execute()
}
