// Command apisearch serves and maintains the API symbol search index.
package main

import (
	"os"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
