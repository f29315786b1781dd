package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"contacthub/api/internal/middleware"
	"contacthub/api/internal/models"
)

type contactRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required"`
}

type contactResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Favorite  bool      `json:"favorite"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toContactResponse(contact models.Contact) contactResponse {
	return contactResponse{
		ID:        contact.ID,
		Name:      contact.Name,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Favorite:  contact.Favorite,
		Owner:     contact.OwnerID,
		CreatedAt: contact.CreatedAt,
		UpdatedAt: contact.UpdatedAt,
	}
}

func (h HandlerSet) ListContacts(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)

	contacts, err := h.contacts.List(c.Request.Context(), user.ID, page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]contactResponse, 0, len(contacts))
	for _, contact := range contacts {
		resp = append(resp, toContactResponse(contact))
	}

	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) GetContact(c *gin.Context) {
	contact, err := h.contacts.Get(c.Request.Context(), c.Param("contactId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toContactResponse(contact))
}

func (h HandlerSet) CreateContact(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required name, email or phone field"})
		return
	}

	contact, err := h.contacts.Create(c.Request.Context(), user.ID, req.Name, req.Email, req.Phone)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toContactResponse(contact))
}

func (h HandlerSet) UpdateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fields"})
		return
	}

	contact, err := h.contacts.Update(c.Request.Context(), c.Param("contactId"), req.Name, req.Email, req.Phone)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toContactResponse(contact))
}

type favoriteRequest struct {
	Favorite *bool `json:"favorite" binding:"required"`
}

func (h HandlerSet) SetFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing field favorite"})
		return
	}

	contact, err := h.contacts.SetFavorite(c.Request.Context(), c.Param("contactId"), *req.Favorite)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toContactResponse(contact))
}

func (h HandlerSet) DeleteContact(c *gin.Context) {
	if err := h.contacts.Delete(c.Request.Context(), c.Param("contactId")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "contact deleted"})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
