package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mroshb/matchday/internal/config"
	"github.com/mroshb/matchday/internal/database"
	"github.com/mroshb/matchday/internal/export"
	"github.com/mroshb/matchday/internal/repositories"
)

func main() {
	path := flag.String("file", "roster.xlsx", "roster workbook to import")
	flag.Parse()

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	roster, err := export.ReadRoster(f)
	if err != nil {
		log.Fatal(err)
	}

	store := repositories.NewGormStore(db)
	ctx := context.Background()

	var created int
	err = store.WithinTransaction(ctx, func(tx repositories.Store) error {
		// Both store implementations also satisfy Seeder.
		seeder, ok := tx.(database.Seeder)
		if !ok {
			return fmt.Errorf("store %T cannot seed", tx)
		}
		created, err = database.ImportRoster(ctx, seeder, roster)
		return err
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Imported %d of %d groups from %s\n", created, len(roster), *path)
}
