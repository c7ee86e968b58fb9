package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "pizzaproblem/internal/errors"
	"pizzaproblem/internal/model"
	"pizzaproblem/internal/service"
)

// AuthHandler handles the authentication endpoint.
type AuthHandler struct {
	svc service.UserService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc service.UserService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// AuthenticateRequest represents a login request.
type AuthenticateRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthenticateResponse represents a successful login response.
type AuthenticateResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Token     string `json:"token"`
}

// NewAuthenticateResponse converts a user plus issued token into the
// response shape.
func NewAuthenticateResponse(user *model.User, token string) AuthenticateResponse {
	return AuthenticateResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Token:     token,
	}
}

// Authenticate godoc
// @Summary Authenticate with username and password
// @Tags users
// @Accept json
// @Produce json
// @Param request body AuthenticateRequest true "Credentials"
// @Success 200 {object} AuthenticateResponse
// @Failure 400 {object} map[string]string
// @Router /users/authenticate [post]
func (h *AuthHandler) Authenticate(c echo.Context) error {
	var req AuthenticateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, token, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			// Deliberately the same message for unknown username and wrong
			// password.
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Username or password is incorrect"})
		}
		he := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, NewAuthenticateResponse(user, token))
}
