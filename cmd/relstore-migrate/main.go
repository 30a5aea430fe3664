// Command relstore-migrate applies the canonical migration set to the
// configured engine. It runs once at deploy time, before request traffic.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/focusloop/relstore"
	"github.com/focusloop/relstore/config"
	"github.com/focusloop/relstore/logger"
	"github.com/focusloop/relstore/migrate"
	"github.com/focusloop/relstore/store"
)

var (
	configPath = flag.String("config", "", "YAML configuration file (overrides -engine/-dsn)")
	engine     = flag.String("engine", "sqlite", "storage engine (sqlite, mysql, postgres)")
	dsn        = flag.String("dsn", "", "engine connection string (file path for sqlite)")
	dir        = flag.String("dir", "./migrations", "canonical migration directory")
	timeout    = flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	verbose    = flag.Bool("verbose", false, "log every statement")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relstore-migrate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	eng, migDir := *engine, *dir
	var (
		db  *store.DB
		err error
	)

	if *configPath != "" {
		cfg, cerr := config.Load(*configPath)
		if cerr != nil {
			return cerr
		}
		eng = cfg.Engine
		if cfg.MigrationsDir != "" {
			migDir = cfg.MigrationsDir
		}
		db, err = relstore.OpenFromConfig(cfg)
		if err != nil {
			return err
		}
		// the configured level wins; -verbose only lifts the default
		if cfg.Log.Level == "" && !*verbose {
			db.Logger().SetLevel(logger.LogLevelWarn)
		}
	} else {
		if *dsn == "" {
			return fmt.Errorf("no DSN: pass -dsn or -config")
		}
		db, err = store.Open(eng, *dsn, nil)
		if err != nil {
			return err
		}
		if !*verbose {
			db.Logger().SetLevel(logger.LogLevelWarn)
		}
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := migrate.NewRunner(db).Run(ctx, os.DirFS(migDir)); err != nil {
		return err
	}
	fmt.Printf("migrations in %s applied to %s\n", migDir, eng)
	return nil
}
