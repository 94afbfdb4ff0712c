// Command seed bulk-loads a JSON seed file into one user's catalog, or
// exports the catalog back out.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/lastcallsw/trackeats/config"
	"github.com/lastcallsw/trackeats/internal/database"
	"github.com/lastcallsw/trackeats/internal/service"
)

func main() {
	username := flag.String("user", "", "username owning the imported records")
	in := flag.String("in", "", "seed file to import")
	out := flag.String("out", "", "file to export the catalog to")
	flag.Parse()

	if *username == "" || (*in == "" && *out == "") {
		log.Fatal("usage: seed -user <username> [-in seed.json | -out export.json]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	cipher, err := service.NewCipher(cfg.EmailKey)
	if err != nil {
		log.Fatalf("Failed to build email cipher: %v", err)
	}

	ctx := context.Background()
	authService := service.NewAuthService(db, cfg.JWTSecret, cipher, service.NewEmailService(cfg))
	userID, err := authService.GetID(ctx, *username)
	if err != nil {
		log.Fatalf("Unknown user %q: %v", *username, err)
	}

	foodService := service.NewFoodService(db)
	recipeService := service.NewRecipeService(db)
	loader := service.NewDataLoadService(db, foodService, recipeService)

	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			log.Fatalf("Failed to open seed file: %v", err)
		}
		defer f.Close()

		result, err := loader.Import(ctx, userID, f)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("Imported %d foods, %d recipes, %d ingredients",
			result.Foods, result.Recipes, result.Ingredients)
		return
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create export file: %v", err)
	}
	defer f.Close()

	if err := loader.Export(ctx, userID, f); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	log.Printf("Exported catalog to %s", *out)
}
