package main

import (
	"embed"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"teleecho/internal/app"
	"teleecho/internal/config"
)

//go:embed all:views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		log.Fatalf("failed to open views: %v", err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to open static files: %v", err)
	}

	cfg := config.NewConfigFromEnvironment(views, static)

	a := app.New(&cfg)

	log.Fatal(a.Listen(cfg.Host + ":" + cfg.Port))
}
