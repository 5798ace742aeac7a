package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"social-post-copilot/internal/infra/logging"
	"social-post-copilot/internal/orchestrator"
)

// SessionClaims carry the workspace identity the backend expects on every
// authenticated call.
type SessionClaims struct {
	CompanyID string `json:"company_id"`
	jwt.RegisteredClaims
}

type AuthManager struct {
	secret []byte
}

func NewAuthManager(secret string) *AuthManager {
	return &AuthManager{secret: []byte(secret)}
}

// Mint issues a short-lived HS256 token for the given company. Used by the
// dev login flow and by tests.
func (a *AuthManager) Mint(companyID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   companyID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Middleware validates the bearer token and feeds its identity into the
// session context so downstream coordinators see current credentials.
func (a *AuthManager) Middleware(sess *orchestrator.SessionContext) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			raw := parts[1]

			claims := &SessionClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return a.secret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess.SetAuth(raw, claims.CompanyID)
			ctx := logging.WithCompanyID(r.Context(), claims.CompanyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
