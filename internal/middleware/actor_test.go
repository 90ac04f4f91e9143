package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/seatwise-api/internal/models"
)

const actorTestSecret = "test-secret"

func actorTestToken(t *testing.T, claims *models.ActorClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(actorTestSecret))
	require.NoError(t, err)
	return token
}

func runActorRequest(t *testing.T, authorization string) *models.ActorClaims {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var captured *models.ActorClaims
	r := gin.New()
	r.Use(Actor(actorTestSecret))
	r.GET("/probe", func(c *gin.Context) {
		captured = models.ActorFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return captured
}

func TestActorAttachesClaims(t *testing.T) {
	token := actorTestToken(t, &models.ActorClaims{ActorID: "staff-7", Role: "admin"})

	claims := runActorRequest(t, "Bearer "+token)
	require.NotNil(t, claims)
	assert.Equal(t, "staff-7", claims.ActorID)
	assert.Equal(t, "admin", claims.Role)
}

func TestActorAnonymousWithoutHeader(t *testing.T) {
	claims := runActorRequest(t, "")
	assert.Nil(t, claims)
}

func TestActorAnonymousOnBadToken(t *testing.T) {
	claims := runActorRequest(t, "Bearer not-a-token")
	assert.Nil(t, claims)
}

func TestActorAnonymousOnWrongSecret(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.ActorClaims{ActorID: "staff-7"}).
		SignedString([]byte("other-secret"))
	require.NoError(t, err)

	claims := runActorRequest(t, "Bearer "+token)
	assert.Nil(t, claims)
}
