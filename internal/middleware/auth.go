package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"apcsp-quiz/internal/config"
	"apcsp-quiz/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	UserIDKey    = "userID"
	UserIDHeader = "X-User-ID"
)

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Auth resolves the caller from a bearer token or, when allowed, the
// X-User-ID header set by the gateway.
type Auth struct {
	secret      []byte
	allowHeader bool
	admins      map[string]bool
}

func NewAuth(cfg *config.AuthConfig) *Auth {
	admins := make(map[string]bool, len(cfg.AdminUserIDs))
	for _, id := range cfg.AdminUserIDs {
		admins[id] = true
	}
	return &Auth{
		secret:      []byte(cfg.JWTSecret),
		allowHeader: cfg.AllowUserIDHdr,
		admins:      admins,
	}
}

func (a *Auth) ValidateJWT(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token is required")
	}
	if len(a.secret) == 0 {
		return nil, errors.New("token authentication is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func (a *Auth) GenerateJWT(userID string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// RequireUser rejects requests without a resolvable user and stores the id
// under UserIDKey.
func (a *Auth) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := a.resolveUser(c)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", err)
			c.Abort()
			return
		}
		if userID == "" {
			utils.UnauthorizedResponse(c, "Authentication required")
			c.Abort()
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.admins[UserID(c)] {
			utils.ForbiddenResponse(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *Auth) resolveUser(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := a.ValidateJWT(tokenString)
		if err != nil {
			return "", err
		}
		return cleanObjectID(claims.UserID), nil
	}
	if a.allowHeader {
		return strings.TrimSpace(c.GetHeader(UserIDHeader)), nil
	}
	return "", nil
}

// cleanObjectID strips the ObjectID("...") wrapper some upstream tokens carry.
func cleanObjectID(id string) string {
	if strings.HasPrefix(id, "ObjectID(\"") && strings.HasSuffix(id, "\")") {
		return id[10 : len(id)-2]
	}
	return id
}

func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
