package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lngifts/LightningGifts/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Wallet-facing LNURL callback. Lives outside the /api group: wallets
	// dial the URL embedded in the bech32 string verbatim, and the LNURL
	// error envelope differs from the API's.
	app.Get("/lnurl/:id", controllers.HandleLNURLWithdraw)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"name": "LightningGifts",
		})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
