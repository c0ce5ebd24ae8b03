package main

import "github.com/2767mr/tmam/cmd"

func main() {
	cmd.Execute()
}
