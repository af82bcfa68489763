package handlers

import (
	"corpvox/internal/middleware"
	"corpvox/internal/services"
	"corpvox/internal/utils"
	"corpvox/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	logger      *logger.Logger
}

func NewAuthHandler(authService services.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      log,
	}
}

// Register creates a new expert account and returns a ready session.
func (h *AuthHandler) Register(c *gin.Context) {
	var request services.RegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	request.IPAddress = c.ClientIP()

	response, err := h.authService.Register(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Account created successfully", response)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var request services.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	request.IPAddress = c.ClientIP()

	response, err := h.authService.Login(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Logged in successfully", response)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), actor, middleware.CurrentSessionID(c)); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), actor.ID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Current user", user)
}
