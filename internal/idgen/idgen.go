// Package idgen produces the external identifiers of orders and payments.
package idgen

import (
	"crypto/rand"
	"math/big"
)

const (
	OrderPrefix   = "order_"
	PaymentPrefix = "pay_"

	alphabet   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixSize = 16
)

var alphabetLen = big.NewInt(int64(len(alphabet)))

// New returns prefix followed by 16 random alphanumeric characters. Collisions
// are not checked here; the store's primary key rejects them.
func New(prefix string) string {
	buf := make([]byte, len(prefix)+suffixSize)
	copy(buf, prefix)
	for i := len(prefix); i < len(buf); i++ {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf)
}

func Order() string   { return New(OrderPrefix) }
func Payment() string { return New(PaymentPrefix) }
