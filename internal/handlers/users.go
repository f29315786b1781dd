package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"contacthub/api/internal/ids"
	"contacthub/api/internal/middleware"
	"contacthub/api/internal/models"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type signupUserResponse struct {
	Email             string `json:"email"`
	VerificationToken string `json:"verificationToken"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := signupUserResponse{Email: user.Email}
	if user.VerificationToken != nil {
		resp.VerificationToken = *user.VerificationToken
	}

	c.JSON(http.StatusCreated, gin.H{"user": resp})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type currentUserResponse struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user": currentUserResponse{
			Email:        user.Email,
			Subscription: string(user.Subscription),
		},
	})
}

func (h HandlerSet) Current(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, currentUserResponse{
		Email:        user.Email,
		Subscription: string(user.Subscription),
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), user.ID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) VerifyEmail(c *gin.Context) {
	token := c.Param("token")

	if err := h.auth.Verify(c.Request.Context(), token); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification successful"})
}

type resendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) ResendVerification(c *gin.Context) {
	var req resendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field email"})
		return
	}

	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification email sent"})
}

type updateSubscriptionRequest struct {
	Subscription string `json:"subscription" binding:"required"`
}

func (h HandlerSet) UpdateSubscription(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.auth.UpdateSubscription(c.Request.Context(), user.ID, models.Subscription(req.Subscription))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, currentUserResponse{
		Email:        updated.Email,
		Subscription: string(updated.Subscription),
	})
}

func (h HandlerSet) UpdateAvatar(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file required"})
		return
	}
	if header.Size > h.cfg.Storage.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	tempPath := filepath.Join(h.cfg.Storage.TempDir, ids.New()+filepath.Ext(header.Filename))
	if err := c.SaveUploadedFile(header, tempPath); err != nil {
		h.respondError(c, err)
		return
	}

	url, err := h.avatars.Process(c.Request.Context(), user.ID, tempPath, header.Filename)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatarURL": url})
}
