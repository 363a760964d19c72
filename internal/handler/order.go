package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"paygate/internal/apperr"
	"paygate/internal/mw"
	"paygate/internal/service"
)

func CreateOrderHandler(orderSvc *service.OrderService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, ok := mw.MerchantID(r.Context())
		if !ok {
			apperr.Write(w, apperr.Authentication("Invalid API credentials"))
			return
		}

		var req createOrderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.Write(w, err)
			return
		}
		if err := v.Struct(req); err != nil {
			apperr.Write(w, validationError(err))
			return
		}

		order, err := orderSvc.Create(r.Context(), service.CreateOrderInput{
			MerchantID: merchantID,
			Amount:     req.Amount,
			Currency:   req.Currency,
			Receipt:    req.Receipt,
			Notes:      req.Notes,
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, order)
	}
}

func GetOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, _ := mw.MerchantID(r.Context())

		order, err := orderSvc.Get(r.Context(), chi.URLParam(r, "id"), merchantID)
		if err != nil {
			apperr.Write(w, err)
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}

func GetPublicOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := orderSvc.GetPublic(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			apperr.Write(w, err)
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}
