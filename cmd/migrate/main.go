// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"socialhub/internal/bootstrap"
	"socialhub/internal/config"
	"socialhub/internal/database"

	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return errors.New("usage: migrate <up|auto|status|down> [-version N] [-format text|yaml]")
}

func run(args []string) error {
	if len(args) < 1 {
		return usage()
	}
	cmd := strings.ToLower(strings.TrimSpace(args[0]))

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	version := fs.Int("version", 0, "migration version for down")
	format := fs.String("format", "text", "status output format: text or yaml")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()
	db := rt.DB

	switch cmd {
	case "up":
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("schema apply failed: %w", err)
		}
		log.Println("schema up to date")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		if *format == "yaml" {
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(status); err != nil {
				return err
			}
			return enc.Close()
		}
		log.Printf("mode=%s driver=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d",
			status.Mode, status.Driver, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
			len(status.AppliedVersions), len(status.PendingMigrations))
		for _, name := range status.Pending {
			log.Printf("pending: %s", name)
		}
	case "down":
		if *version <= 0 {
			return errors.New("usage: migrate down -version N")
		}
		if err := database.RollbackMigration(ctx, db, *version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %d", *version)
	default:
		return usage()
	}

	return nil
}
