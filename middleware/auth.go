package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// GuestOwner scopes uploads and chat memory of anonymous callers
const GuestOwner = "guest"

var errNoToken = errors.New("no token")

// Claims are the session token claims
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken signs a session token for the user
func GenerateToken(uid, email string, cfg *config.AuthConfig) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(cfg.TokenExpireHours) * time.Hour)

	claims := Claims{
		UID:   uid,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseToken validates a session token and returns its claims
func ParseToken(tokenString string, cfg *config.AuthConfig) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// bearerToken reads the token from the Authorization header, falling back
// to the session cookie set for the HTML pages
func bearerToken(c *gin.Context, cfg *config.AuthConfig) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", errors.New("Invalid authorization header format")
		}
		return parts[1], nil
	}
	if cfg.CookieName != "" {
		if cookie, err := c.Cookie(cfg.CookieName); err == nil && cookie != "" {
			return cookie, nil
		}
	}
	return "", errNoToken
}

func setUser(c *gin.Context, claims *Claims) {
	c.Set("uid", claims.UID)
	c.Set("email", claims.Email)
	c.Request = c.Request.WithContext(logger.WithUser(c.Request.Context(), claims.UID, claims.Email))
}

// AuthMiddleware rejects requests without a valid session token
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c, cfg)
		if errors.Is(err, errNoToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := ParseToken(tokenString, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		setUser(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// everyone else through as a guest
func OptionalAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, err := bearerToken(c, cfg); err == nil {
			if claims, err := ParseToken(tokenString, cfg); err == nil {
				setUser(c, claims)
			}
		}
		c.Next()
	}
}

// GetUID gets the authenticated user id from context
func GetUID(c *gin.Context) string {
	return c.GetString("uid")
}

// GetEmail gets the authenticated user email from context
func GetEmail(c *gin.Context) string {
	return c.GetString("email")
}

// Owner is the scope for per-user server state: the uid, or GuestOwner
func Owner(c *gin.Context) string {
	if uid := GetUID(c); uid != "" {
		return uid
	}
	return GuestOwner
}
