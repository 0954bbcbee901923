// Command main runs the database seeder for Mangafas.
package main

import (
	"flag"
	"log"

	"mangafas/internal/config"
	"mangafas/internal/database"
	"mangafas/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	numManga := flag.Int("manga", 40, "Number of titles to create")
	numComments := flag.Int("comments", 400, "Number of comments to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a specific seeder preset (e.g., demo)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	if *preset != "" {
		log.Printf("Applying preset: %s (ignoring other flags)\n", *preset)
	} else {
		log.Printf("Target: %d users, %d titles, %d comments, clean=%v\n",
			*numUsers, *numManga, *numComments, *shouldClean)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	_, err = database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run seeder
	s := seed.NewSeeder(database.DB)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if *preset != "" {
		if err := s.ApplyPreset(*preset); err != nil {
			log.Fatalf("❌ Preset seeding failed: %v", err)
		}
	} else {
		users, err := s.SeedCommunity(*numUsers)
		if err != nil {
			log.Fatalf("❌ User seeding failed: %v", err)
		}
		mangas, err := s.SeedCatalog(users, *numManga)
		if err != nil {
			log.Fatalf("❌ Catalog seeding failed: %v", err)
		}
		if err := s.SeedEngagement(users, mangas, *numComments); err != nil {
			log.Fatalf("❌ Engagement seeding failed: %v", err)
		}
		if err := s.SeedModerationBacklog(users); err != nil {
			log.Fatalf("❌ Backlog seeding failed: %v", err)
		}
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Println("📧 All test users have the password: password123")
}
