package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/lngifts/LightningGifts/app/controllers"
	"github.com/lngifts/LightningGifts/internal/pkg/env"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// The web client dials these paths unprefixed, so the limiter is attached
	// per route instead of on a group prefix.
	rate := limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	})

	app.Post("/create", rate, controllers.HandleCreateGift)
	app.Get("/gift/:id", rate, controllers.HandleGetGift)
	app.Get("/gift/:id/qr", rate, controllers.HandleGetGiftQR)
	app.Post("/redeem/:id", rate, controllers.HandleRedeem)
	app.Get("/status/:chargeId", rate, controllers.HandleChargeStatus)
	app.Get("/stats", rate, controllers.HandleStats)
	app.Post("/redeemStatus/:withdrawalId", rate, controllers.HandleRedeemStatus)

	// Provider callbacks are not rate limited; OpenNode retries on errors.
	app.Post("/webhooks/create", controllers.HandleChargeWebhook)
	app.Post("/webhooks/redeem", controllers.HandleWithdrawalWebhook)
}

// newLimiterStorage backs the rate limiter with the shared cache server so
// limits hold across replicas.
func newLimiterStorage() fiber.Storage {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host: env.GetEnv("CACHE_HOST", "localhost"),
		Port: port,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
