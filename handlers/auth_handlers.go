package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"visitrack/api/models"
	"visitrack/api/store"
	"visitrack/api/utils"
)

// AdminAccounts is the account surface the auth handlers consume.
type AdminAccounts interface {
	CreateAdmin(ctx context.Context, email string, hashedPassword []byte) (*models.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type AuthHandlers struct {
	Admins AdminAccounts
}

func NewAuthHandlers(admins AdminAccounts) *AuthHandlers {
	return &AuthHandlers{Admins: admins}
}

// cookieTTL matches the token expiry: 7 days.
const cookieTTL = int(7 * 24 * time.Hour / time.Second)

// CreateAdmin registers a dashboard operator account. Initial-setup endpoint;
// duplicate emails are refused.
func (h *AuthHandlers) CreateAdmin(c *gin.Context) {
	var req models.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: Failed to hash password for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	admin, err := h.Admins.CreateAdmin(c.Request.Context(), req.Email, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "Admin with this email already exists"})
			return
		}
		log.Printf("ERROR: Failed to create admin for email %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create admin"})
		return
	}

	log.Printf("Admin registered: ID=%d, Email=%s", admin.ID, admin.Email)
	c.JSON(http.StatusCreated, gin.H{"message": "Admin created successfully", "email": admin.Email})
}

// Login authenticates an admin and issues the session token as an httpOnly
// cookie. The token is also returned in the body for bearer-header clients.
// Invalid email and invalid password get the same 401.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	admin, err := h.Admins.GetAdminByEmail(c.Request.Context(), req.Email)
	if err != nil {
		log.Printf("Login failed for email %s: %v", req.Email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(admin.HashedPassword, []byte(req.Password)); err != nil {
		log.Printf("Login failed for email %s: password mismatch", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := utils.GenerateJWT(admin)
	if err != nil {
		log.Printf("ERROR: Failed to generate JWT for admin %d: %v", admin.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.SetCookie(
		"admin_token",
		tokenString,
		cookieTTL,
		"/",
		"",
		false,
		true,
	)

	log.Printf("Admin logged in: ID=%d, Email=%s. JWT issued.", admin.ID, admin.Email)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"email":   admin.Email,
		"token":   tokenString,
	})
}

// Logout clears the session cookie. There is no server-side revocation list,
// so a token captured before logout stays valid until its natural expiry.
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(
		"admin_token",
		"",
		-1,
		"/",
		"",
		false,
		true,
	)

	log.Println("Admin logged out (session cookie cleared).")
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Verify echoes the authenticated identity attached by the auth middleware.
func (h *AuthHandlers) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"email":         c.MustGet("admin_email").(string),
	})
}
