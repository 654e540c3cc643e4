// Command seed fills the blog database with demo content.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/kolimbet/blog-composition-back/internal/config"
	"github.com/kolimbet/blog-composition-back/internal/database"
	"github.com/kolimbet/blog-composition-back/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of readers to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	maxComments := flag.Int("comments", defaults.MaxCommentsPerPost, "Maximum comments per published post")
	avatarEvery := flag.Int("avatar-every", defaults.AvatarEvery, "Give every n-th reader an avatar, 0 disables")
	fixturesPath := flag.String("fixtures", "", "YAML fixture file, the embedded set when empty")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Store plain-text passwords, for throwaway databases only")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	var fixtures *seed.Fixtures
	if *fixturesPath != "" {
		data, err := os.ReadFile(*fixturesPath)
		if err != nil {
			log.Fatalf("Failed to read fixtures: %v", err)
		}
		if fixtures, err = seed.LoadFixtures(data); err != nil {
			log.Fatalf("Invalid fixtures: %v", err)
		}
	}

	opts := defaults
	opts.NumUsers = *numUsers
	opts.NumPosts = *numPosts
	opts.MaxCommentsPerPost = *maxComments
	opts.AvatarEvery = *avatarEvery
	opts.StorageDir = cfg.StorageDir
	opts.FeatureFlags = cfg.FeatureFlags
	opts.SkipBcrypt = *fast

	s, err := seed.NewSeeder(db, fixtures, opts)
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Done: %d admins, %d users, %d tags, %d posts, %d comments, %d likes",
		sum.Admins, sum.Users, sum.Tags, sum.Posts, sum.Comments, sum.Likes)
}
