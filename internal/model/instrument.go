package model

// Instrument is the method-specific part of a payment request. It is a closed
// set: UPI or Card.
type Instrument interface {
	Method() Method
	instrument()
}

type UPI struct {
	VPA string
}

func (UPI) Method() Method { return MethodUPI }
func (UPI) instrument()    {}

// Card holds the submitted card details. None of these fields are persisted;
// only the derived network and last four digits are.
type Card struct {
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	Name        string
}

func (Card) Method() Method { return MethodCard }
func (Card) instrument()    {}
