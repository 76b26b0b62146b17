package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/phuclab/mathlms/internal/rbac"
	"github.com/phuclab/mathlms/internal/session"
)

type AuthService struct{ hmac []byte }

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"` // student|teacher|admin
	SID   string `json:"sid"`  // local session ID; must still be live in the registry
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(email, name, role, sessionID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Name:  name,
		Role:  role,
		SID:   sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mathlms",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(8 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, err
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// JWTMiddleware validates the bearer token and requires the embedded session
// to still be live (a revoked session, e.g. after a detected conflict, makes
// the token useless immediately). Identity and role land in the context.
func JWTMiddleware(a *AuthService, sessions *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil || c == nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			if _, ok := sessions.Get(c.SID); !ok {
				http.Error(w, "session expired", http.StatusUnauthorized)
				return
			}
			ctx := WithIdentity(r.Context(), c.Email, c.SID)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
