package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/matchday/internal/config"
	"github.com/mroshb/matchday/internal/database"
	"github.com/mroshb/matchday/internal/export"
	"github.com/mroshb/matchday/internal/repositories"
)

func main() {
	path := flag.String("out", "results.xlsx", "workbook to write")
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

	ctx := context.Background()

	rows, err := export.CollectResults(ctx, repositories.NewGormStore(db))
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if err := export.WriteResults(&buf, rows); err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(*path, buf.Bytes(), 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %d finalized games to %s\n", len(rows), *path)

	if cfg.ExportBucket == "" {
		return
	}

	uploader, err := export.NewUploader(ctx, export.BucketConfig{
		Endpoint:        cfg.ExportEndpoint,
		Region:          cfg.ExportRegion,
		Bucket:          cfg.ExportBucket,
		AccessKeyID:     cfg.ExportAccessKeyID,
		SecretAccessKey: cfg.ExportSecretAccessKey,
	})
	if err != nil {
		log.Fatal(err)
	}

	key := fmt.Sprintf("results/%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	location, err := uploader.Upload(ctx, key, buf.Bytes())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Uploaded to %s\n", location)
}
