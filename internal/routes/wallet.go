package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neurowallet/neurowallet/internal/wallet"
)

// RegisterWalletRoutes wires the caller's wallet endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets", h.List)
	r.Get("/wallets/:walletId", h.Get)
	r.Delete("/wallets/:walletId", h.Delete)
}
