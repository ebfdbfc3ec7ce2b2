package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopkartlabs/shopkart-backend/api/middleware"
	cartsvc "github.com/shopkartlabs/shopkart-backend/internal/cart"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

type stubCartService struct {
	addedProduct uuid.UUID
	addedQty     int
	cleared      bool
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cartsvc.View, error) {
	return &cartsvc.View{}, nil
}

func (s *stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*cartsvc.View, error) {
	s.addedProduct = productID
	s.addedQty = qty
	return &cartsvc.View{}, nil
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, qty int) (*cartsvc.View, error) {
	panic("unimplemented")
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*cartsvc.View, error) {
	panic("unimplemented")
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func authedContext(userID uuid.UUID) context.Context {
	return middleware.WithUser(context.Background(), userID, "buyer")
}

func TestAddCartItem(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	productID := uuid.New()

	t.Run("success", func(t *testing.T) {
		stub := &stubCartService{}
		body := `{"productId":"` + productID.String() + `","qty":3}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
		req = req.WithContext(authedContext(userID))
		rec := httptest.NewRecorder()
		AddCartItem(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.addedProduct != productID || stub.addedQty != 3 {
			t.Fatalf("service received %s qty %d", stub.addedProduct, stub.addedQty)
		}
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		stub := &stubCartService{}
		body := `{"productId":"` + productID.String() + `","qty":0}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
		req = req.WithContext(authedContext(userID))
		rec := httptest.NewRecorder()
		AddCartItem(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":`))
		req = req.WithContext(authedContext(userID))
		rec := httptest.NewRecorder()
		AddCartItem(&stubCartService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestUpdateCartItemRejectsBadID(t *testing.T) {
	logg := testLogger()
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("itemId", "not-a-uuid")
	ctx := context.WithValue(authedContext(uuid.New()), chi.RouteCtxKey, routeCtx)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/not-a-uuid", strings.NewReader(`{"qty":2}`))
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	UpdateCartItem(&stubCartService{}, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid item id, got %d", rec.Code)
	}
}

func TestClearCart(t *testing.T) {
	logg := testLogger()
	stub := &stubCartService{}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	req = req.WithContext(authedContext(uuid.New()))
	rec := httptest.NewRecorder()
	ClearCart(stub, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !stub.cleared {
		t.Fatalf("expected Clear to be invoked")
	}
}
