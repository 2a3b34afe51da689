package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/renovation-mindmap/internal/middleware"
	"github.com/01moynul/renovation-mindmap/internal/models"
	"github.com/01moynul/renovation-mindmap/internal/store"
)

// Register handles POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind Input ---
	var input models.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	// 2. --- Hash Password ---
	var pw models.Password
	if err := pw.Set(input.Password); err != nil {
		h.Log.Error("Failed to hash password", "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	// 3. --- Save User ---
	user := &models.User{Username: input.Username, PasswordHash: pw.Hash}
	if err := h.Users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			abortWithError(c, http.StatusConflict, "Username already taken")
			return
		}
		h.Log.Error("Failed to create user", "username", input.Username, "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID})
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind Input ---
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	// 2. --- Find User ---
	user, err := h.Users.GetByUsername(c.Request.Context(), input.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			abortWithError(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.Log.Error("Failed to load user", "username", input.Username, "error", err)
		abortWithError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	// 3. --- Check Password ---
	pw := models.Password{Hash: user.PasswordHash}
	match, err := pw.Matches(input.Password)
	if err != nil || !match {
		abortWithError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	// 4. --- Issue Token ---
	token, err := h.Tokens.GenerateToken(user.ID)
	if err != nil {
		h.Log.Error("Failed to sign token", "error", err)
		abortWithError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me handles GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "User not found")
			return
		}
		h.Log.Error("Failed to load user", "user_id", userID, "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}
