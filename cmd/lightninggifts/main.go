package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lngifts/LightningGifts/internal/pkg/cache"
	"github.com/lngifts/LightningGifts/internal/pkg/database"
	"github.com/lngifts/LightningGifts/internal/pkg/env"
	"github.com/lngifts/LightningGifts/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	app := fiber.New(fiber.Config{
		AppName: "LightningGifts",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// the web client is served from a different origin
	app.Use(cors.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
