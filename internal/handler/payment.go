package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"paygate/internal/apperr"
	"paygate/internal/mw"
	"paygate/internal/service"
)

// CreatePaymentHandler serves the merchant-authenticated payment endpoint.
func CreatePaymentHandler(paymentSvc *service.PaymentService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, ok := mw.MerchantID(r.Context())
		if !ok {
			apperr.Write(w, apperr.Authentication("Invalid API credentials"))
			return
		}
		createPayment(w, r, paymentSvc, v, merchantID)
	}
}

// CreatePublicPaymentHandler serves hosted checkout. The order id alone
// identifies the merchant.
func CreatePublicPaymentHandler(paymentSvc *service.PaymentService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		createPayment(w, r, paymentSvc, v, "")
	}
}

func createPayment(w http.ResponseWriter, r *http.Request, paymentSvc *service.PaymentService, v *validator.Validate, merchantID string) {
	var req createPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if err := v.Struct(req); err != nil {
		apperr.Write(w, validationError(err))
		return
	}

	payment, err := paymentSvc.Create(r.Context(), service.CreatePaymentInput{
		OrderID:    req.OrderID,
		MerchantID: merchantID,
		Instrument: req.instrument(),
	})
	if err != nil {
		apperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, payment)
}

func GetPaymentHandler(paymentSvc *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payment, err := paymentSvc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			apperr.Write(w, err)
			return
		}

		writeJSON(w, http.StatusOK, payment)
	}
}

func ListMerchantPaymentsHandler(paymentSvc *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, _ := mw.MerchantID(r.Context())

		payments, err := paymentSvc.ListByMerchant(r.Context(), merchantID)
		if err != nil {
			apperr.Write(w, err)
			return
		}

		writeJSON(w, http.StatusOK, payments)
	}
}
