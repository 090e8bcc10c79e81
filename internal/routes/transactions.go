package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neurowallet/neurowallet/internal/ledger"
)

// RegisterTransactionRoutes wires ledger postings and history.
func RegisterTransactionRoutes(r fiber.Router, h *ledger.Handler, limiter fiber.Handler) {
	r.Post("/transactions", limiter, h.Create)
	r.Get("/transactions", h.List)
}
