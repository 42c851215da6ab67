// ceasarctl is a command-line client for the Ceasar auth API.
//
//	ceasarctl [--server URL] [--session FILE] <command> [flags]
//
// Commands:
//
//	register   create an account
//	login      obtain a token and store it locally
//	whoami     validate the stored token and show who it belongs to
//	logout     forget the stored token
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:], newTerminal()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
