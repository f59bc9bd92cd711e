package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Harsh-Singh007/grabit/internal/service"
)

type SellerHandler struct {
	sellerService *service.SellerService
	cookies       CookieConfig
}

func NewSellerHandler(sellerService *service.SellerService, cookies CookieConfig) *SellerHandler {
	return &SellerHandler{sellerService: sellerService, cookies: cookies}
}

func (h *SellerHandler) Login(c echo.Context) error {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	token, err := h.sellerService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	h.cookies.set(c, sellerCookie, token)
	return success(c, http.StatusOK, "Login successful", nil)
}

func (h *SellerHandler) IsAuth(c echo.Context) error {
	seller, err := h.sellerService.Profile(c.Request().Context(), sellerEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "", body{"seller": body{"email": seller.Email}})
}

func (h *SellerHandler) Logout(c echo.Context) error {
	h.cookies.clear(c, sellerCookie)
	return success(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *SellerHandler) UpdateProfile(c echo.Context) error {
	req := struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		NewPassword string `json:"newPassword"`
	}{}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	seller, token, err := h.sellerService.UpdateProfile(c.Request().Context(), sellerEmail(c), service.SellerProfileInput{
		Email:       req.Email,
		Password:    req.Password,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return respondError(c, err)
	}
	h.cookies.set(c, sellerCookie, token)
	return success(c, http.StatusOK, "Profile updated successfully", body{"seller": body{"email": seller.Email}})
}
