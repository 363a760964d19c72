package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"paygate/internal/apperr"
	"paygate/internal/model"
)

const maxBodyBytes = 1 << 20

type createOrderRequest struct {
	Amount   int64           `json:"amount" validate:"gte=100"`
	Currency string          `json:"currency" validate:"omitempty,len=3,alpha"`
	Receipt  *string         `json:"receipt" validate:"omitempty,max=64"`
	Notes    json.RawMessage `json:"notes"`
}

// createPaymentRequest is the wire form of a payment. Any amount or currency
// the client sends is ignored; both come from the order.
type createPaymentRequest struct {
	OrderID string       `json:"order_id" validate:"required"`
	Method  string       `json:"method"`
	VPA     string       `json:"vpa"`
	Card    *cardRequest `json:"card"`
}

type cardRequest struct {
	Number      string     `json:"number"`
	ExpiryMonth flexString `json:"expiry_month"`
	ExpiryYear  flexString `json:"expiry_year"`
	CVV         string     `json:"cvv"`
	HolderName  string     `json:"holder_name"`
}

// instrument maps the request onto the closed set of instruments. An unknown
// method yields nil, which the payment service rejects after resolving the
// order. A card request without card details yields an empty card, which
// fails the Luhn check.
func (r createPaymentRequest) instrument() model.Instrument {
	switch model.Method(strings.ToLower(strings.TrimSpace(r.Method))) {
	case model.MethodUPI:
		return model.UPI{VPA: strings.TrimSpace(r.VPA)}
	case model.MethodCard:
		if r.Card == nil {
			return model.Card{}
		}
		return model.Card{
			Number:      r.Card.Number,
			ExpiryMonth: string(r.Card.ExpiryMonth),
			ExpiryYear:  string(r.Card.ExpiryYear),
			CVV:         r.Card.CVV,
			Name:        r.Card.HolderName,
		}
	default:
		return nil
	}
}

// flexString accepts both "12" and 12.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.BadRequest("invalid json")
	}
	return nil
}

// validationError turns the first validator failure into a BAD_REQUEST_ERROR.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.BadRequest("invalid request")
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "amount":
		return apperr.BadRequest("amount must be at least 100")
	case fe.Field() == "currency":
		return apperr.BadRequest("currency must be a 3-letter code")
	case fe.Tag() == "required":
		return apperr.BadRequest(fe.Field() + " is required")
	default:
		return apperr.BadRequest(fe.Field() + " is invalid")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
