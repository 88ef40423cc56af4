package main

import "github.com/theirongolddev/rfcst/cmd"

func main() {
	cmd.Execute()
}
