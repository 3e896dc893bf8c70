package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rocketshoes/cartservice/internal/domain"
	apperrors "github.com/rocketshoes/cartservice/pkg/errors"
	"github.com/rocketshoes/cartservice/pkg/validator"
)

// CartStore is the mutation surface the handler drives.
type CartStore interface {
	Snapshot() domain.Cart
	AddProduct(ctx context.Context, productID int64) (*domain.Cart, error)
	RemoveProduct(ctx context.Context, productID int64) (*domain.Cart, error)
	UpdateProductAmount(ctx context.Context, productID int64, amount int) (*domain.Cart, error)
}

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	store  CartStore
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(store CartStore, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		store:  store,
		logger: logger,
	}
}

// --- Request DTOs ---

// UpdateAmountRequest is the JSON request body for setting an item's amount.
// The field must be present; non-positive values are accepted and treated as
// a no-op downstream, so a pointer distinguishes absent from zero.
type UpdateAmountRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

// --- Response envelope ---

type response struct {
	Data  any            `json:"data,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// cartResponse is the cart representation returned by every endpoint.
type cartResponse struct {
	Items       []domain.LineItem `json:"items"`
	ItemCount   int               `json:"item_count"`
	TotalAmount int64             `json:"total_amount"`
}

func newCartResponse(cart domain.Cart) cartResponse {
	items := cart.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return cartResponse{
		Items:       items,
		ItemCount:   cart.ItemCount(),
		TotalAmount: cart.TotalAmount(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(h.store.Snapshot())})
}

// AddItem handles POST /api/v1/cart/items/{productID}
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.store.AddProduct(r.Context(), productID)
	if err != nil {
		h.writeError(w, r, err, "failed to add product")
		return
	}

	writeJSON(w, http.StatusOK, response{Data: newCartResponse(*cart)})
}

// UpdateItemAmount handles PUT /api/v1/cart/items/{productID}
func (h *CartHandler) UpdateItemAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	cart, err := h.store.UpdateProductAmount(r.Context(), productID, *req.Amount)
	if err != nil {
		h.writeError(w, r, err, "failed to update product amount")
		return
	}

	writeJSON(w, http.StatusOK, response{Data: newCartResponse(*cart)})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.store.RemoveProduct(r.Context(), productID)
	if err != nil {
		h.writeError(w, r, err, "failed to remove product")
		return
	}

	writeJSON(w, http.StatusOK, response{Data: newCartResponse(*cart)})
}

// --- Helpers ---

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "productID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "productID must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}

// isPolicyRejection reports whether the error is one of the cart's own
// rejection classes. A downstream AppError, even a 404, never matches.
func isPolicyRejection(err error) bool {
	return errors.Is(err, apperrors.ErrOutOfStock) || errors.Is(err, apperrors.ErrItemNotFound)
}

// writeError renders a store error. The cart's policy rejections keep their
// own code and message; everything else, downstream AppErrors included,
// collapses into the operation's generic failure message so transport
// details never leak to clients.
func (h *CartHandler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && isPolicyRejection(err) {
		writeJSON(w, appErr.Status, response{
			Error: &errorResponse{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	status := http.StatusInternalServerError
	if errors.Is(err, apperrors.ErrServiceUnavail) {
		status = http.StatusServiceUnavailable
	}

	h.logger.ErrorContext(r.Context(), fallback,
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	code := "INTERNAL_ERROR"
	if status == http.StatusServiceUnavailable {
		code = "SERVICE_UNAVAILABLE"
	}

	writeJSON(w, status, response{
		Error: &errorResponse{Code: code, Message: fallback},
	})
}

func (h *CartHandler) writeValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	writeJSON(w, http.StatusBadRequest, response{
		Error: &errorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}
