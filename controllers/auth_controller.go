package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"applyflow/config"
	"applyflow/services"
)

// AuthController authenticates the single configured operator. There is
// no user table: the engine runs on behalf of one person whose
// credentials come from the environment.
type AuthController struct {
	cfg        config.AppConfig
	jwtService *services.JWTService
}

func NewAuthController(cfg config.AppConfig, jwtService *services.JWTService) *AuthController {
	return &AuthController{cfg: cfg, jwtService: jwtService}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// Login checks the operator credentials and issues a JWT.
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, AuthResponse{
			Success: false,
			Message: "Invalid request data: " + err.Error(),
		})
		return
	}

	if c.cfg.OperatorEmail == "" || c.cfg.OperatorPasswordHash == "" {
		ctx.JSON(http.StatusServiceUnavailable, AuthResponse{
			Success: false,
			Message: "Operator credentials not configured",
		})
		return
	}

	if req.Email != c.cfg.OperatorEmail ||
		bcrypt.CompareHashAndPassword([]byte(c.cfg.OperatorPasswordHash), []byte(req.Password)) != nil {
		ctx.JSON(http.StatusUnauthorized, AuthResponse{
			Success: false,
			Message: "Invalid email or password",
		})
		return
	}

	token, err := c.jwtService.GenerateToken(req.Email)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, AuthResponse{
			Success: false,
			Message: "Failed to generate authentication token",
		})
		return
	}

	ctx.JSON(http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
	})
}
