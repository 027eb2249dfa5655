package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
)

const usage = `usage: migrate [-dir path] <command> [arg]

commands:
  up [n]      apply all or the next n migrations
  down [n]    roll back one or n migrations
  version     print the current version
  force v     mark version v as clean after a failed run`

// zapLogger adapts zap to the migrate.Logger interface.
type zapLogger struct {
	sugar   *zap.SugaredLogger
	verbose bool
}

func (l zapLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(strings.TrimRight(format, "\n"), v...)
}

func (l zapLogger) Verbose() bool { return l.verbose }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dir := flag.String("dir", cfg.Migrations.Dir, "directory holding the *.sql migrations")
	verbose := flag.Bool("v", false, "log every migration step")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := migrate.New("file://"+*dir, database.URL(cfg.Database))
	if err != nil {
		logr.Fatal("failed to open migrations", zap.String("dir", *dir), zap.Error(err))
	}
	m.Log = zapLogger{sugar: logr.Sugar(), verbose: *verbose}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logr.Warn("failed to close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	if err := run(m, flag.Arg(0), flag.Arg(1)); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logr.Info("no change")
			return
		}
		logr.Error("migration failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		os.Exit(1)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logr.Info("database is empty")
	case err != nil:
		logr.Warn("failed to read version", zap.Error(err))
	default:
		logr.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
}

func run(m *migrate.Migrate, command, arg string) error {
	switch command {
	case "up":
		if arg == "" {
			return m.Up()
		}
		n, err := positive(arg)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "down":
		n := 1
		if arg != "" {
			parsed, err := positive(arg)
			if err != nil {
				return err
			}
			n = parsed
		}
		return m.Steps(-n)
	case "version":
		return nil
	case "force":
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("force needs a version number: %w", err)
		}
		return m.Force(v)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func positive(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("step count must be a positive integer, got %q", raw)
	}
	return n, nil
}
