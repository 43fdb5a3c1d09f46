// README: Signup, login, and profile handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideloop/internal/http/middleware"
	"rideloop/internal/modules/account"
)

type AccountHandler struct {
	accounts *account.Service
}

func NewAccountHandler(svc *account.Service) *AccountHandler {
	return &AccountHandler{accounts: svc}
}

func (h *AccountHandler) Signup(c *gin.Context) {
	var cmd account.RegisterCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	profile, err := h.accounts.Register(c.Request.Context(), cmd)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, profile)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	token, profile, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"token": token, "profile": profile})
}

func (h *AccountHandler) Profile(c *gin.Context) {
	actor, _ := middleware.CallerActor(c)
	profile, err := h.accounts.ProfileOf(c.Request.Context(), actor)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, profile)
}
