// Command braindock captures notes into a local store and reconciles them
// with a remote authority.
package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/braindock/internal/client/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
