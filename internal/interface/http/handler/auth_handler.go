package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/user"
)

type AuthHandler struct {
	registerUC  *user.RegisterUseCase
	loginUC     *user.LoginUseCase
	refreshUC   *user.RefreshUseCase
	logoutUC    *user.LogoutUseCase
	meUC        *user.MeUseCase
	listUsersUC *user.ListUsersUseCase
}

func NewAuthHandler(
	registerUC *user.RegisterUseCase,
	loginUC *user.LoginUseCase,
	refreshUC *user.RefreshUseCase,
	logoutUC *user.LogoutUseCase,
	meUC *user.MeUseCase,
	listUsersUC *user.ListUsersUseCase,
) *AuthHandler {
	return &AuthHandler{
		registerUC:  registerUC,
		loginUC:     loginUC,
		refreshUC:   refreshUC,
		logoutUC:    logoutUC,
		meUC:        meUC,
		listUsersUC: listUsersUC,
	}
}

// Register обрабатывает POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.registerUC.Execute(c.Request.Context(), req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToAuthResponse(result))
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.loginUC.Execute(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToAuthResponse(result))
}

// Refresh обрабатывает POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.refreshUC.Execute(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToAuthResponse(result))
}

// Logout обрабатывает POST /api/auth/logout: отзывает переданный refresh токен.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.LogoutRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.logoutUC.Execute(c.Request.Context(), userID, req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	u, err := h.meUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToUserResponse(u))
}

// ListUsers обрабатывает GET /api/users (только admin).
func (h *AuthHandler) ListUsers(c *gin.Context) {
	limit, offset := pageParams(c, 20, 100)
	input := user.ListUsersInput{Role: c.Query("role"), Limit: limit, Offset: offset}

	users, total, err := h.listUsersUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToUserResponses(users), total, input.Limit, input.Offset)
}
