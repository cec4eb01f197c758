// Package httpapi exposes the social engine over a JSON HTTP API.
package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// callerIDKey is the gin context key carrying the authenticated account id.
const callerIDKey = "caller_id"

// Claims is the bearer token payload. The subject is the account id.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs a bearer token for the given account id.
func GenerateToken(secret string, accountID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			Issuer:    "socialcore",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// AuthRequired validates the bearer token and stores the caller account id on
// the request context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header is required",
			})
			return
		}
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "bearer token is malformed",
			})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "bearer token is invalid",
			})
			return
		}

		c.Set(callerIDKey, strings.TrimSpace(claims.Subject))
		c.Next()
	}
}

// CallerID returns the authenticated account id set by AuthRequired.
func CallerID(c *gin.Context) string {
	value, _ := c.Get(callerIDKey)
	if accountID, ok := value.(string); ok {
		return accountID
	}
	return ""
}
