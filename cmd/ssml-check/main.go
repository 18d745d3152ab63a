// Command ssml-check validates SSML documents from the command line and can
// submit them to a running ssml-service.
package main

import (
	"os"
)

func main() {
	err := newRootCmd(os.Stdin, os.Stdout).Execute()
	if err != nil {
		os.Exit(1)
	}
}
