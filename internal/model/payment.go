package model

import "time"

type Method string

const (
	MethodUPI  Method = "upi"
	MethodCard Method = "card"
)

type PaymentStatus string

const (
	PaymentProcessing PaymentStatus = "processing" // initial
	PaymentSuccess    PaymentStatus = "success"
	PaymentFailed     PaymentStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

type CardNetwork string

const (
	NetworkVisa       CardNetwork = "visa"
	NetworkMastercard CardNetwork = "mastercard"
	NetworkAmex       CardNetwork = "amex"
	NetworkRupay      CardNetwork = "rupay"
	NetworkUnknown    CardNetwork = "unknown"
)

const (
	ErrCodePaymentFailed = "PAYMENT_FAILED"
	ErrDescPaymentFailed = "Payment processing failed due to bank rejection"
)

type Payment struct {
	ID               string        `json:"id"`
	OrderID          string        `json:"order_id"`
	MerchantID       string        `json:"merchant_id"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	Method           Method        `json:"method"`
	Status           PaymentStatus `json:"status"`
	VPA              string        `json:"vpa,omitempty"`
	CardNetwork      CardNetwork   `json:"card_network,omitempty"`
	CardLast4        string        `json:"card_last4,omitempty"`
	ErrorCode        string        `json:"error_code,omitempty"`
	ErrorDescription string        `json:"error_description,omitempty"`
	SettleAfter      time.Time     `json:"-"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Settlement is the terminal outcome applied to a processing payment.
type Settlement struct {
	PaymentID        string
	Status           PaymentStatus
	ErrorCode        string
	ErrorDescription string
	SettledAt        time.Time
}

// NewSettlement builds the terminal outcome for a payment. Declines carry the
// fixed bank-rejection error; successes carry none.
func NewSettlement(paymentID string, success bool, at time.Time) Settlement {
	if success {
		return Settlement{PaymentID: paymentID, Status: PaymentSuccess, SettledAt: at}
	}
	return Settlement{
		PaymentID:        paymentID,
		Status:           PaymentFailed,
		ErrorCode:        ErrCodePaymentFailed,
		ErrorDescription: ErrDescPaymentFailed,
		SettledAt:        at,
	}
}
