package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"upi-gateway/web/order"
)

// Context keys set by RequireAuth.
const (
	CtxUserUUID = "userUUID"
	CtxRole     = "role"
)

func parseBearer(c *gin.Context) (jwt.MapClaims, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(os.Getenv("SECRET")), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	return claims, true
}

// RequireAuth rejects requests without a valid bearer token and stashes
// the caller's uuid and role for the handlers.
func RequireAuth(c *gin.Context) {
	claims, ok := parseBearer(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
		c.Abort()
		return
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)

	c.Set(CtxUserUUID, sub)
	c.Set(CtxRole, role)
	c.Next()
}

// RequireAdmin runs after RequireAuth. Anything but an explicit admin
// claim is treated as non-admin.
func RequireAdmin(c *gin.Context) {
	role, _ := c.Get(CtxRole)
	if role != order.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized as an admin"})
		c.Abort()
		return
	}
	c.Next()
}

// CallerRole reports the verified role of the request, or "" when the
// request carried no valid credential.
func CallerRole(c *gin.Context) string {
	role, _ := c.Get(CtxRole)
	s, _ := role.(string)
	return s
}
