package wallet

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/neurowallet/neurowallet/internal/identity"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

type createRequest struct {
	Currency string `json:"currency" validate:"required,alpha,len=3"`
}

type walletResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Currency  string    `json:"currency"`
	Balance   string    `json:"balance"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(w Wallet) walletResponse {
	return walletResponse{
		ID:        w.ID,
		OwnerID:   w.OwnerID,
		Currency:  w.Currency,
		Balance:   FormatAmount(w.Balance),
		Status:    w.Status,
		CreatedAt: w.CreatedAt,
	}
}

func toResponses(wallets []Wallet) []walletResponse {
	out := make([]walletResponse, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, toResponse(w))
	}
	return out
}

// Create provisions a wallet for the authenticated caller.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "currency must be a three letter code")
	}
	caller, _ := identity.FromContext(c.UserContext())
	wallet, err := h.service.Create(c.UserContext(), caller, req.Currency)
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(wallet))
}

// List returns the caller's wallets.
func (h *Handler) List(c *fiber.Ctx) error {
	caller, _ := identity.FromContext(c.UserContext())
	wallets, err := h.service.List(c.UserContext(), caller)
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponses(wallets))
}

// Get returns one of the caller's wallets.
func (h *Handler) Get(c *fiber.Ctx) error {
	caller, _ := identity.FromContext(c.UserContext())
	wallet, err := h.service.Get(c.UserContext(), caller, c.Params("walletId"))
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(wallet))
}

// Delete removes one of the caller's wallets.
func (h *Handler) Delete(c *fiber.Ctx) error {
	caller, _ := identity.FromContext(c.UserContext())
	if err := h.service.Delete(c.UserContext(), caller, c.Params("walletId")); err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "wallet deleted"})
}

// Freeze marks a wallet FROZEN. Administrative.
func (h *Handler) Freeze(c *fiber.Ctx) error {
	wallet, err := h.service.Freeze(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(wallet))
}

// Unfreeze marks a wallet ACTIVE. Administrative.
func (h *Handler) Unfreeze(c *fiber.Ctx) error {
	wallet, err := h.service.Unfreeze(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(wallet))
}

// ListAll returns every wallet. Administrative.
func (h *Handler) ListAll(c *fiber.Ctx) error {
	wallets, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponses(wallets))
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnsupportedCurrency):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		h.service.logger.Error("wallet store failure", slog.Any("error", err))
		return fiber.NewError(http.StatusServiceUnavailable, "wallet store temporarily unavailable")
	}
}
