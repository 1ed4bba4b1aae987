package main

import "github.com/dcdpr/bookworm/cmd"

func main() {
	cmd.Execute()
}
