package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of the bearer tokens issued to app clients.
type Claims struct {
	jwt.RegisteredClaims
	// UID is the authenticated user's identifier.
	UID string `json:"uid"`
	// Name is the user's display name, if the client supplied one at sign-in.
	Name string `json:"name,omitempty"`
}

// GenerateToken signs a bearer token for the given user.
func GenerateToken(secret, uid, name string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "nudge-notify",
		},
		UID:  uid,
		Name: name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// BearerAuth verifies the Authorization header and stores the caller's UID in
// the request context. Requests are rejected before any handler (and thus any
// database read) runs.
func BearerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization token"})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization token"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.UID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("uid", claims.UID)
		c.Set("name", claims.Name)
		c.Next()
	}
}

// CallerUID returns the authenticated user's identifier from the context.
// BearerAuth must have run first.
func CallerUID(c *gin.Context) string {
	uid, _ := c.Get("uid")
	if s, ok := uid.(string); ok {
		return s
	}
	return ""
}
