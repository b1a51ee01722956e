// Command braindock-server runs the remote authority: a gRPC endpoint in
// front of PostgreSQL.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/braindock/internal/server"
	"github.com/dmitrijs2005/braindock/internal/server/config"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
