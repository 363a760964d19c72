package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"paygate/internal/apperr"
	"paygate/internal/model"
)

type contextKey string

const MerchantCtxKey contextKey = "merchant_id"

const (
	HeaderAPIKey    = "X-Api-Key"
	HeaderAPISecret = "X-Api-Secret"
)

// Authenticator resolves API credentials to a merchant.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey, apiSecret string) (*model.Merchant, error)
}

// MerchantAuth accepts either the X-Api-Key/X-Api-Secret header pair or a
// bearer token issued by the token endpoint, and stores the merchant id in
// the request context.
func MerchantAuth(auth Authenticator, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var merchantID string

			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					apperr.Write(w, apperr.Authentication("Invalid token format"))
					return
				}
				id, err := parseToken(parts[1], jwtSecret)
				if err != nil {
					apperr.Write(w, apperr.Authentication("Invalid or expired token"))
					return
				}
				merchantID = id
			} else {
				m, err := auth.Authenticate(r.Context(), r.Header.Get(HeaderAPIKey), r.Header.Get(HeaderAPISecret))
				if err != nil {
					apperr.Write(w, err)
					return
				}
				merchantID = m.ID
			}

			ctx := context.WithValue(r.Context(), MerchantCtxKey, merchantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	merchantID, ok := claims["merchant_id"].(string)
	if !ok || merchantID == "" {
		return "", errors.New("merchant_id not found in token")
	}
	return merchantID, nil
}

// MerchantID returns the authenticated merchant of the request.
func MerchantID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(MerchantCtxKey).(string)
	return id, ok && id != ""
}
