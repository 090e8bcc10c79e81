package ledger

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/neurowallet/neurowallet/internal/identity"
	"github.com/neurowallet/neurowallet/internal/transaction"
	"github.com/neurowallet/neurowallet/internal/wallet"
)

// Handler exposes transaction endpoints.
type Handler struct {
	engine   *Engine
	validate *validator.Validate
}

// NewHandler constructs a transaction handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine, validate: validator.New()}
}

type applyRequest struct {
	WalletID    string          `json:"wallet_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type" validate:"required"`
	ToWalletID  string          `json:"to_wallet_id"`
	Description string          `json:"description" validate:"max=255"`
}

type transactionResponse struct {
	ID                  string    `json:"id"`
	WalletID            string    `json:"wallet_id"`
	CounterpartWalletID string    `json:"counterpart_wallet_id,omitempty"`
	Currency            string    `json:"currency"`
	Amount              string    `json:"amount"`
	Type                string    `json:"type"`
	RiskFlag            bool      `json:"risk_flag"`
	CreatedAt           time.Time `json:"created_at"`
	Description         string    `json:"description,omitempty"`
}

func toResponse(t transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:                  t.ID,
		WalletID:            t.WalletID,
		CounterpartWalletID: t.CounterpartWalletID,
		Currency:            t.Currency,
		Amount:              wallet.FormatAmount(t.Amount),
		Type:                string(t.Type),
		RiskFlag:            t.RiskFlag,
		CreatedAt:           t.CreatedAt,
		Description:         t.Description,
	}
}

func toResponses(txs []transaction.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toResponse(t))
	}
	return out
}

// Create applies a deposit, withdrawal or transfer for the caller.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req applyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	kind, err := transaction.ParseType(req.Type)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	caller, _ := identity.FromContext(c.UserContext())
	record, err := h.engine.Apply(c.UserContext(), Request{
		WalletID:    req.WalletID,
		Amount:      req.Amount,
		Type:        kind,
		ToWalletID:  req.ToWalletID,
		Description: req.Description,
	}, caller)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(record))
}

// List returns the caller's transactions, honouring currency, risk and sort query parameters.
func (h *Handler) List(c *fiber.Ctx) error {
	filter := ListFilter{
		Currency: c.Query("currency"),
		Sort:     transaction.ParseSortKey(c.Query("sort")),
	}
	if raw := c.Query("risk"); raw != "" {
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "risk must be true or false")
		}
		filter.Risk = &flag
	}

	caller, _ := identity.FromContext(c.UserContext())
	txs, err := h.engine.ListForOwner(c.UserContext(), caller, filter)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponses(txs))
}

// ListAll returns every transaction. Administrative.
func (h *Handler) ListAll(c *fiber.Ctx) error {
	txs, err := h.engine.ListAll(c.UserContext())
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponses(txs))
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrWalletFrozen):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrInvalidRequest):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRateUnavailable):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrUnavailable):
		return fiber.NewError(http.StatusServiceUnavailable, "ledger temporarily unavailable")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
