// Command gradegraph analyzes student assessment workbooks from the shell
// and can run the HTTP server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
