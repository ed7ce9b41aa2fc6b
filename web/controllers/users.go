package controllers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"upi-gateway/web/db"
	"upi-gateway/web/order"
)

// EnsureAdmin seeds the first admin account from ADMIN_USER/ADMIN_PASS
// when the users table is empty, so a fresh deployment is reachable.
func EnsureAdmin() {
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		return
	}

	username := os.Getenv("ADMIN_USER")
	password := os.Getenv("ADMIN_PASS")
	if username == "" || password == "" {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return
	}
	db.DB.Create(&db.User{
		Username: username,
		Password: string(hash),
		UUID:     uuid.New().String(),
		Role:     order.RoleAdmin,
	})
}

func ListUsers(c *gin.Context) {
	var users []db.User
	if err := db.DB.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{
			"id":       u.ID,
			"username": u.Username,
			"uuid":     u.UUID,
			"role":     u.Role,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func CreateUser(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if c.BindJSON(&body) != nil || body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	role := body.Role
	if role != order.RoleAdmin {
		role = order.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), 12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := db.User{
		Username: body.Username,
		Password: string(hash),
		UUID:     uuid.New().String(),
		Role:     role,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

func DeleteUser(c *gin.Context) {
	var user db.User
	if err := db.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err := db.DB.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user removed"})
}
