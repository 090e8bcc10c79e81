package wallet

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/neurowallet/neurowallet/internal/identity"
	"github.com/neurowallet/neurowallet/internal/logging"
)

type brokenRepository struct {
	Repository
	err error
}

func (r brokenRepository) ListByOwner(context.Context, string) ([]Wallet, error) {
	return nil, r.err
}

func (r brokenRepository) Get(context.Context, string) (Wallet, error) {
	return Wallet{}, r.err
}

func newHandlerApp(repo Repository) *fiber.App {
	handler := NewHandler(NewService(repo, []string{"USD"}, logging.Discard()))
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(identity.WithCaller(c.UserContext(), identity.Caller{Subject: "alice@example.com"}))
		return c.Next()
	})
	app.Get("/wallets", handler.List)
	app.Get("/wallets/:walletId", handler.Get)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestHandlerStoreFailureIsUnavailable(t *testing.T) {
	repo := brokenRepository{Repository: NewMemoryRepository(), err: errors.New("FATAL: terminating connection due to administrator command (SQLSTATE 57P01)")}
	app := newHandlerApp(repo)

	for _, path := range []string{"/wallets", "/wallets/3f1c2a9e-8d7b-4c1e-9a55-0b6f7e2d4c10"} {
		status, body := get(t, app, path)
		if status != fiber.StatusServiceUnavailable {
			t.Fatalf("%s: expected %d got %d", path, fiber.StatusServiceUnavailable, status)
		}
		if strings.Contains(body, "SQLSTATE") {
			t.Fatalf("%s: store error leaked to client: %s", path, body)
		}
	}
}

func TestHandlerMapsDomainErrors(t *testing.T) {
	app := newHandlerApp(NewMemoryRepository())

	if status, _ := get(t, app, "/wallets/missing"); status != fiber.StatusNotFound {
		t.Fatalf("expected %d got %d", fiber.StatusNotFound, status)
	}
	if status, _ := get(t, app, "/wallets"); status != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, status)
	}
}
