// Command migrate manages the blog schema: users, posts, tags, post_tag,
// comments, post_likes, images and access_tokens, plus the published feed
// index. The SQL scripts are embedded from internal/database/migrations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/kolimbet/blog-composition-back/internal/config"
	"github.com/kolimbet/blog-composition-back/internal/database"
	"github.com/kolimbet/blog-composition-back/internal/middleware"
)

const usageText = `Usage: go run ./cmd/migrate [-force] <command> [version]

Commands:
  list            Show the embedded blog schema migrations
  up              Apply pending SQL migrations
  auto            Sync the schema with GORM AutoMigrate
  status          Show schema mode and applied/pending migrations
  down <version>  Roll back one migration (needs -force in production)
`

var errUsage = errors.New("invalid arguments")

func main() {
	force := flag.Bool("force", false, "allow rollbacks in production")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	flag.Parse()

	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	if cmd == "list" {
		listMigrations(os.Stdout, database.GetMigrations(), nil)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	middleware.InitLogger(cfg.Env, os.Stderr)

	if err := run(context.Background(), cfg, cmd, flag.Args(), *force); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
		}
		middleware.Logger.Error("migrate failed", slog.String("command", cmd), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string, force bool) error {
	switch cmd {
	case "up", "auto", "status":
	case "down":
		if _, err := rollbackTarget(args, cfg.IsProduction(), force); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	switch cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		middleware.Logger.Info("sql migrations applied", slog.String("driver", cfg.DBDriver))
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		middleware.Logger.Info("blog models auto-migrated", slog.String("driver", cfg.DBDriver))
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		fmt.Printf("mode=%s env=%s driver=%s run_sql=%t run_auto=%t\n",
			status.Mode, status.Environment, status.Driver, status.WillRunSQL, status.WillRunAutoMigrate)
		listMigrations(os.Stdout, database.GetMigrations(), append([]int{}, status.AppliedVersions...))
	case "down":
		version, _ := rollbackTarget(args, cfg.IsProduction(), force)
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		middleware.Logger.Warn("migration rolled back", slog.Int("version", version))
	}
	return nil
}

// rollbackTarget validates the down arguments against the embedded set.
func rollbackTarget(args []string, production, force bool) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%w: down needs a version", errUsage)
	}
	version, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid version %q", errUsage, args[1])
	}
	if database.GetMigrationByVersion(version) == nil {
		return 0, fmt.Errorf("no embedded migration with version %d", version)
	}
	if production && !force {
		return 0, errors.New("refusing to roll back in production without -force")
	}
	return version, nil
}

// listMigrations prints one line per migration. With applied versions the
// line is marked applied or pending.
func listMigrations(w io.Writer, all []database.Migration, applied []int) {
	for i := range all {
		m := &all[i]
		switch {
		case applied == nil:
			fmt.Fprintln(w, m.String())
		case slices.Contains(applied, m.Version):
			fmt.Fprintf(w, "[applied] %s\n", m)
		default:
			fmt.Fprintf(w, "[pending] %s\n", m)
		}
	}
}
