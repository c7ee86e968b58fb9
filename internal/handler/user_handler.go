package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "pizzaproblem/internal/errors"
	"pizzaproblem/internal/model"
	"pizzaproblem/internal/service"
)

// UserHandler bundles HTTP handlers for user CRUD and the leaderboard.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUserRequest represents a user creation or full-replace payload.
type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required,min=4"`
	PizzaLove int    `json:"pizzaLove" validate:"gte=0"`
}

// PatchUserRequest represents a partial update; nil fields are not applied.
type PatchUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	PizzaLove *int    `json:"pizzaLove" validate:"omitempty,gte=0"`
}

// isEmpty reports whether the document patches nothing, which covers both an
// absent body and a literal {}.
func (r PatchUserRequest) isEmpty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Username == nil &&
		r.Password == nil && r.PizzaLove == nil
}

// UserResponse is the outward user representation.
type UserResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	PizzaLove int    `json:"pizzaLove"`
}

// NewUserResponse converts a user record into its response shape.
func NewUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		PizzaLove: user.PizzaLove,
	}
}

// NewUserListResponse converts a slice of user records.
func NewUserListResponse(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

func (r CreateUserRequest) toInput() service.CreateUserInput {
	return service.CreateUserInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Username:  r.Username,
		Password:  r.Password,
		PizzaLove: r.PizzaLove,
	}
}

func (r PatchUserRequest) toInput() service.PatchUserInput {
	return service.PatchUserInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Username:  r.Username,
		Password:  r.Password,
		PizzaLove: r.PizzaLove,
	}
}

func userLocation(id uint) string {
	return fmt.Sprintf("/api/users/%d", id)
}

// ListUsers godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Success 200 {array} UserResponse
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		he := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, NewUserListResponse(users))
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		he := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, NewUserResponse(user))
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User payload"
// @Success 201 {object} UserResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.CreateUser(c.Request().Context(), req.toInput())
	if err != nil {
		he := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}

	c.Response().Header().Set(echo.HeaderLocation, userLocation(user.ID))
	return c.JSON(http.StatusCreated, NewUserResponse(user))
}

// UpdateUser godoc
// @Summary Create or fully replace user at id
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body CreateUserRequest true "User payload"
// @Success 200 {object} UserResponse
// @Success 201 {object} UserResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, created, err := h.svc.UpdateUser(c.Request().Context(), id, req.toInput())
	if err != nil {
		he := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}

	if created {
		c.Response().Header().Set(echo.HeaderLocation, userLocation(user.ID))
		return c.JSON(http.StatusCreated, NewUserResponse(user))
	}
	return c.JSON(http.StatusOK, NewUserResponse(user))
}

// PatchUser godoc
// @Summary Partially update user
// @Tags users
// @Accept json
// @Param id path int true "User ID"
// @Param request body PatchUserRequest true "Patch document"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [patch]
func (h *UserHandler) PatchUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	// Unknown id wins over a missing patch document, matching the
	// 404-before-400 contract.
	if _, err := h.svc.GetUser(c.Request().Context(), id); err != nil {
		he := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}

	var req PatchUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.isEmpty() {
		he := apperrors.MapErrorToHTTP(apperrors.ErrEmptyPatch)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}

	if _, err := h.svc.PatchUser(c.Request().Context(), id, req.toInput()); err != nil {
		he := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}
	return c.NoContent(http.StatusNoContent)
}

// TopTenUsers godoc
// @Summary Top ten users by pizza love
// @Tags users
// @Produce json
// @Success 200 {array} UserResponse
// @Router /users/GetTopTenUser [get]
func (h *UserHandler) TopTenUsers(c echo.Context) error {
	users, err := h.svc.TopTenPizzaLove(c.Request().Context())
	if err != nil {
		he := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, NewUserListResponse(users))
}

// IncreasePizzaLove godoc
// @Summary Increase a user's pizza love by one
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/pizzalove [post]
func (h *UserHandler) IncreasePizzaLove(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.IncreasePizzaLove(c.Request().Context(), id); err != nil {
		he := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
	}
	return c.NoContent(http.StatusNoContent)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}
