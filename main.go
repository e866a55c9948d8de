// Command da is a command-line client for docassemble servers.
package main

import "github.com/jpagh/docassemblecli3/cmd"

func main() {
	cmd.Execute()
}
