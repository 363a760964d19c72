package handler

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"paygate/internal/apperr"
	"paygate/internal/mw"
	"paygate/internal/service"
)

const tokenTTL = 24 * time.Hour

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenHandler exchanges API credentials for a bearer token.
func TokenHandler(merchantSvc *service.MerchantService, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchant, err := merchantSvc.Authenticate(r.Context(), r.Header.Get(mw.HeaderAPIKey), r.Header.Get(mw.HeaderAPISecret))
		if err != nil {
			apperr.Write(w, err)
			return
		}

		expiresAt := time.Now().Add(tokenTTL).UTC()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"merchant_id": merchant.ID,
			"exp":         jwt.NewNumericDate(expiresAt),
		})

		tokenString, err := token.SignedString([]byte(secret))
		if err != nil {
			apperr.Write(w, err)
			return
		}

		w.Header().Set("Authorization", "Bearer "+tokenString)
		writeJSON(w, http.StatusOK, tokenResponse{
			Token:     tokenString,
			TokenType: "Bearer",
			ExpiresAt: expiresAt,
		})
	}
}

type testMerchantResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
	Seeded bool   `json:"seeded"`
}

func TestMerchantHandler(merchantSvc *service.MerchantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := merchantSvc.TestMerchant(r.Context())
		if err != nil {
			apperr.Write(w, err)
			return
		}

		writeJSON(w, http.StatusOK, testMerchantResponse{
			ID:     m.ID,
			Email:  m.Email,
			APIKey: m.APIKey,
			Seeded: true,
		})
	}
}
