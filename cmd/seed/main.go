// Command seed fills the database with fake users, posts, likes and follows.
package main

import (
	"context"
	"flag"
	"log"

	"socialhub/internal/bootstrap"
	"socialhub/internal/config"
	"socialhub/internal/seed"
)

func main() {
	def := seed.DefaultOptions()
	numUsers := flag.Int("users", def.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", def.NumPosts, "Number of posts to create")
	maxLikes := flag.Int("max-likes", def.MaxLikesPerPost, "Upper bound of likes per post")
	maxFollows := flag.Int("max-follows", def.MaxFollowsPerUser, "Upper bound of follows per user")
	maxDays := flag.Int("days", def.MaxDays, "Spread post timestamps over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Skip password hashing; seeded users cannot log in")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *fast && cfg.IsProduction() {
		log.Fatal("-fast is not allowed in production")
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true, SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = rt.Close(ctx) }()

	s, err := seed.NewSeeder(rt.DB, seed.Options{
		NumUsers:          *numUsers,
		NumPosts:          *numPosts,
		MaxLikesPerPost:   *maxLikes,
		MaxFollowsPerUser: *maxFollows,
		MaxDays:           *maxDays,
		BatchSize:         def.BatchSize,
		SkipBcrypt:        *fast,
		RandomSeed:        *randomSeed,
	})
	if err != nil {
		log.Fatalf("Invalid seed options: %v", err)
	}

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	res, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d likes, %d follows", res.Users, res.Posts, res.Likes, res.Follows)
	if *fast {
		log.Println("Fast mode: seeded users cannot log in")
	} else {
		log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
	}
}
