package main

import "github.com/voltur/voltexec/cmd"

func main() {
	cmd.Execute()
}
