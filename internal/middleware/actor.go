package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/seatwise/seatwise-api/internal/models"
)

// Actor attaches actor identity from the upstream gateway's bearer token
// to the request context for audit attribution. It never rejects a
// request: authentication is enforced upstream, and an unparseable token
// simply leaves the request anonymous.
func Actor(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		claims := &models.ActorClaims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || claims.ActorID == "" {
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(models.WithActor(c.Request.Context(), claims))
		c.Next()
	}
}
