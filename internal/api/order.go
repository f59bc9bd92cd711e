package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Harsh-Singh007/grabit/internal/payment"
	"github.com/Harsh-Singh007/grabit/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
	clientURL    string
}

func NewOrderHandler(orderService *service.OrderService, clientURL string) *OrderHandler {
	return &OrderHandler{orderService: orderService, clientURL: clientURL}
}

func (h *OrderHandler) placeInput(c echo.Context) (service.PlaceOrderInput, error) {
	req := placeOrderRequest{}
	if err := c.Bind(&req); err != nil {
		return service.PlaceOrderInput{}, err
	}
	return service.PlaceOrderInput{
		UserID:        buyerID(c),
		Items:         req.items(),
		Address:       req.Address,
		IdempotentKey: c.Request().Header.Get("Idempotent-Key"),
	}, nil
}

func (h *OrderHandler) PlaceCOD(c echo.Context) error {
	in, err := h.placeInput(c)
	if err != nil {
		return badRequest(c)
	}

	order, err := h.orderService.PlaceCOD(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, "Order placed successfully", body{"order": order})
}

func (h *OrderHandler) PlaceCard(c echo.Context) error {
	in, err := h.placeInput(c)
	if err != nil {
		return badRequest(c)
	}

	origin := c.Request().Header.Get("Origin")
	if origin == "" {
		origin = h.clientURL
	}

	order, url, err := h.orderService.PlaceCard(c.Request().Context(), in, origin)
	if errors.Is(err, payment.ErrNotConfigured) {
		return fail(c, http.StatusServiceUnavailable, "Card payments are not available")
	}
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "", body{"url": url, "orderId": order.ID})
}

func (h *OrderHandler) VerifyCardPayment(c echo.Context) error {
	req := struct {
		OrderID string   `json:"orderId"`
		Success flexBool `json:"success"`
	}{}
	if err := c.Bind(&req); err != nil || req.OrderID == "" {
		return badRequest(c)
	}

	err := h.orderService.VerifyCardPayment(c.Request().Context(), buyerID(c), req.OrderID, bool(req.Success))
	if err != nil {
		return respondError(c, err)
	}
	if !req.Success {
		return c.JSON(http.StatusOK, body{"success": false, "message": "Payment failed"})
	}
	return success(c, http.StatusOK, "Payment successful", nil)
}

func (h *OrderHandler) ListForUser(c echo.Context) error {
	orders, err := h.orderService.ListForUser(c.Request().Context(), buyerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "", body{"orders": orders})
}

func (h *OrderHandler) ListAll(c echo.Context) error {
	orders, err := h.orderService.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "", body{"orders": orders})
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	req := struct {
		OrderID string `json:"orderId"`
	}{}
	if err := c.Bind(&req); err != nil || req.OrderID == "" {
		return badRequest(c)
	}

	order, err := h.orderService.CancelByUser(c.Request().Context(), buyerID(c), req.OrderID)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "Order cancelled successfully", body{"order": order})
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	req := struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}{}
	if err := c.Bind(&req); err != nil || req.OrderID == "" {
		return badRequest(c)
	}

	order, err := h.orderService.UpdateStatus(c.Request().Context(), req.OrderID, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "Status Updated", body{"order": order})
}
