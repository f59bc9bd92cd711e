package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Harsh-Singh007/grabit/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	cookies     CookieConfig
}

func NewUserHandler(userService *service.UserService, cookies CookieConfig) *UserHandler {
	return &UserHandler{userService: userService, cookies: cookies}
}

func (h *UserHandler) Register(c echo.Context) error {
	req := struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	user, err := h.userService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, "User registered successfully. Please check your email for verification OTP.",
		body{"user": body{"name": user.Name, "email": user.Email}})
}

func (h *UserHandler) Login(c echo.Context) error {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	user, token, err := h.userService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	h.cookies.set(c, buyerCookie, token)
	return success(c, http.StatusOK, "Logged in successfully", body{"user": body{"name": user.Name, "email": user.Email}})
}

func (h *UserHandler) VerifyAccount(c echo.Context) error {
	req := struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}{}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	if err := h.userService.VerifyAccount(c.Request().Context(), req.Email, req.OTP); err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "Account verified successfully", nil)
}

func (h *UserHandler) ResendOTP(c echo.Context) error {
	req := struct {
		Email string `json:"email"`
	}{}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	if err := h.userService.ResendOTP(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "Verification OTP sent successfully", nil)
}

func (h *UserHandler) IsAuth(c echo.Context) error {
	user, err := h.userService.Profile(c.Request().Context(), buyerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "", body{"user": user})
}

func (h *UserHandler) Logout(c echo.Context) error {
	h.cookies.clear(c, buyerCookie)
	return success(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	req := struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}{}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), buyerID(c), service.UpdateProfileInput{
		Name:            req.Name,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "Profile updated successfully", body{"user": body{"name": user.Name, "email": user.Email}})
}

func (h *UserHandler) UpdateCart(c echo.Context) error {
	req := struct {
		CartItems cartPayload `json:"cartItems"`
	}{}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	cart, err := h.userService.UpdateCart(c.Request().Context(), buyerID(c), req.CartItems)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "Cart updated", body{"cartItems": cart})
}
