package main

import (
	"flag"
	"log"

	"github.com/lastcallsw/trackeats/config"
	"github.com/lastcallsw/trackeats/internal/database"
)

func main() {
	dir := flag.String("dir", "migrations", "directory containing .sql migration files")
	auto := flag.Bool("auto", false, "use GORM auto-migration instead of SQL files")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *auto {
		db, err := database.New(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Auto-migration failed: %v", err)
		}
		log.Println("Auto-migration complete")
		return
	}

	db, err := database.OpenSQL(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db, *dir); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}
	log.Println("Migrations complete")
}
