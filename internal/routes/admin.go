package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neurowallet/neurowallet/internal/ledger"
	"github.com/neurowallet/neurowallet/internal/wallet"
)

// RegisterAdminRoutes wires administrative endpoints. The router must already enforce the ADMIN role.
func RegisterAdminRoutes(r fiber.Router, wallets *wallet.Handler, transactions *ledger.Handler) {
	r.Get("/wallets", wallets.ListAll)
	r.Put("/wallets/:walletId/freeze", wallets.Freeze)
	r.Put("/wallets/:walletId/unfreeze", wallets.Unfreeze)
	r.Get("/transactions", transactions.ListAll)
}
