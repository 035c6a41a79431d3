// Command resetdb drops every object in the configured database and replays
// the migrations from scratch. Meant for local development only.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	migrationsPath := flag.String("migrations", "migrations", "path to the migrations directory")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	mig, err := migrate.New("file://"+*migrationsPath, databaseURL)
	if err != nil {
		log.Fatalf("could not create migrate instance: %v", err)
	}
	defer mig.Close()

	log.Println("dropping all database objects")
	if err := mig.Drop(); err != nil {
		log.Fatalf("could not drop database objects: %v", err)
	}

	// Drop wipes the schema_migrations table as well, so a fresh instance
	// is needed to rebuild the source state.
	mig2, err := migrate.New("file://"+*migrationsPath, databaseURL)
	if err != nil {
		log.Fatalf("could not create migrate instance: %v", err)
	}
	defer mig2.Close()

	log.Println("applying migrations")
	if err := mig2.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("could not run migrations: %v", err)
	}

	log.Println("database reset complete")
}
