// Package main provides account moderation utilities for the blog.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/kolimbet/blog-composition-back/internal/config"
	"github.com/kolimbet/blog-composition-back/internal/database"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/repository"
	"github.com/kolimbet/blog-composition-back/internal/service"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>                     - Grant the admin role")
	fmt.Println("  go run ./cmd/admin demote <user_id>                      - Revoke the admin role")
	fmt.Println("  go run ./cmd/admin list-admins                           - List all admins")
	fmt.Println("  go run ./cmd/admin ban <user_id> <admin_id> [comment]    - Ban a user")
	fmt.Println("  go run ./cmd/admin unban <user_id>                       - Lift a ban")
	fmt.Println("  go run ./cmd/admin mark-tested <user_id> [true|false]    - Skip comment moderation")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	users := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewCommentRepository(db),
		repository.NewPostRepository(db),
		repository.NewImageRepository(db),
		nil,
	)

	if err := run(context.Background(), users, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, users *service.UserService, command string, args []string) error {
	if command == "list-admins" {
		return listAdmins(ctx, users)
	}
	if len(args) < 1 {
		printUsage()
		return fmt.Errorf("%s needs a user id", command)
	}
	userID, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	var user *models.User
	switch command {
	case "promote":
		user, err = users.SetAdmin(ctx, userID, true)
	case "demote":
		user, err = users.SetAdmin(ctx, userID, false)
	case "ban":
		if len(args) < 2 {
			return fmt.Errorf("usage: go run ./cmd/admin ban <user_id> <admin_id> [comment]")
		}
		adminID, perr := parseUserID(args[1])
		if perr != nil {
			return perr
		}
		user, err = users.Ban(ctx, userID, adminID, strings.Join(args[2:], " "))
	case "unban":
		user, err = users.Unban(ctx, userID)
	case "mark-tested":
		tested := true
		if len(args) > 1 {
			if tested, err = strconv.ParseBool(args[1]); err != nil {
				return fmt.Errorf("invalid flag %q: %w", args[1], err)
			}
		}
		user, err = users.MarkTested(ctx, userID, tested)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", command, err)
	}

	fmt.Printf("User %s (ID: %d): admin=%t banned=%t tested=%t\n",
		user.Name, user.ID, user.IsAdmin, user.IsBanned, user.IsTested)
	return nil
}

func parseUserID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return uint(id), nil
}

func listAdmins(ctx context.Context, users *service.UserService) error {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch admins: %w", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return nil
	}

	fmt.Println("Current admins:")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", admin.ID, admin.Name, admin.Email)
	}
	return nil
}
