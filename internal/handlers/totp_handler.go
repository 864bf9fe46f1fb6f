package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"crm-backend/internal/auth"
	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
	"crm-backend/internal/services"
	"crm-backend/pkg/utils"
)

type TOTPHandler struct {
	TOTPService *services.TOTPService
	UserService *services.UserService
	JWT         *auth.JWTManager
}

func NewTOTPHandler(totpService *services.TOTPService, userService *services.UserService, jwt *auth.JWTManager) *TOTPHandler {
	return &TOTPHandler{TOTPService: totpService, UserService: userService, JWT: jwt}
}

// Setup generates a fresh TOTP secret and QR code for the logged-in user
func (h *TOTPHandler) Setup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	companyID, _ := middleware.GetCompanyIDFromContext(r.Context())

	user, err := h.UserService.GetUser(r.Context(), companyID, userID)
	if err != nil {
		serviceError(w, err)
		return
	}

	setup, err := h.TOTPService.GenerateSetup(r.Context(), user)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, setup)
}

// Enable confirms the pending secret with a code and turns 2FA on
func (h *TOTPHandler) Enable(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.TOTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		utils.Error(w, http.StatusBadRequest, "Verification code is required")
		return
	}

	if err := h.TOTPService.VerifyAndEnable(r.Context(), userID, req.Code); err != nil {
		serviceError(w, err)
		return
	}
	utils.Message(w, http.StatusOK, "Two-factor authentication enabled")
}

// Verify exchanges a pending 2FA token plus a valid code for a full session
// token. This is step two of login for 2FA-enabled accounts.
func (h *TOTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		utils.Error(w, http.StatusUnauthorized, "Missing pending token")
		return
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := h.JWT.ValidateTempToken(tokenString)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "Invalid or expired pending token")
		return
	}

	var req models.TOTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		utils.Error(w, http.StatusBadRequest, "Verification code is required")
		return
	}

	if err := h.TOTPService.Verify(r.Context(), claims.UserID, req.Code); err != nil {
		serviceError(w, err)
		return
	}

	user, err := h.UserService.Repo.Get(r.Context(), claims.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}
	token, err := h.JWT.GenerateToken(user)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, &models.AuthResponse{Token: token, User: user})
}

// Disable turns off 2FA for the logged-in user
func (h *TOTPHandler) Disable(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.TOTPService.Disable(r.Context(), userID); err != nil {
		serviceError(w, err)
		return
	}
	utils.Message(w, http.StatusOK, "Two-factor authentication disabled")
}
