// Command main fills the database with demo users and bookmarks.
package main

import (
	"context"
	"flag"
	"log"

	"linkvault/internal/config"
	"linkvault/internal/database"
	"linkvault/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	perUser := flag.Int("bookmarks", 25, "Bookmarks per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	log.Printf("Seeding %d users with %d bookmarks each (clean=%v)", *numUsers, *perUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	_, err = seed.NewSeeder(db).Run(context.Background(), seed.Options{
		NumUsers:         *numUsers,
		BookmarksPerUser: *perUser,
		ShouldClean:      *shouldClean,
		Seed:             *randSeed,
		BcryptCost:       cfg.BcryptCost,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All done. Every demo user has the password: %s", seed.DemoPassword)
}
