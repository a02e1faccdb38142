// migrate applies the embedded postgres migrations outside the service.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/smallbiznis/gridpulse/internal/migration"
	"github.com/smallbiznis/gridpulse/pkg/db"
)

func main() {
	direction := flag.String("direction", migration.DirectionUp, "Migration direction: up or down")
	flag.Parse()

	cfg := db.FromAppConfig(config.Load())
	if cfg.Type != db.TypePostgres {
		fmt.Fprintf(os.Stderr, "migrate: sql migrations target postgres, DATABASE_TYPE is %q\n", cfg.Type)
		os.Exit(1)
	}

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		url = db.MigrationURL(cfg)
	}
	if err := migration.Run(url, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
