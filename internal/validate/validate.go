// Package validate holds the payment-method input checks.
package validate

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"paygate/internal/model"
)

var (
	vpaRe        = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)
	visaRe       = regexp.MustCompile(`^4`)
	mastercardRe = regexp.MustCompile(`^5[1-5]`)
	amexRe       = regexp.MustCompile(`^3[47]`)
	rupayRe      = regexp.MustCompile(`^(60|65|8[1-9])`)
)

// New returns a struct validator with the "vpa" and "luhn" tags registered.
// Field errors are reported under their JSON names.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("vpa", func(fl validator.FieldLevel) bool {
		return VPA(fl.Field().String())
	})
	_ = v.RegisterValidation("luhn", func(fl validator.FieldLevel) bool {
		return Luhn(fl.Field().String())
	})
	return v
}

func VPA(vpa string) bool {
	return vpaRe.MatchString(vpa)
}

// Digits strips everything but ASCII digits from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func Luhn(number string) bool {
	s := Digits(number)
	if len(s) < 2 {
		return false
	}
	var sum int
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		digit := int(s[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

func DetectNetwork(number string) model.CardNetwork {
	clean := Digits(number)
	switch {
	case visaRe.MatchString(clean):
		return model.NetworkVisa
	case mastercardRe.MatchString(clean):
		return model.NetworkMastercard
	case amexRe.MatchString(clean):
		return model.NetworkAmex
	case rupayRe.MatchString(clean):
		return model.NetworkRupay
	default:
		return model.NetworkUnknown
	}
}

func Last4(number string) string {
	clean := Digits(number)
	if len(clean) <= 4 {
		return clean
	}
	return clean[len(clean)-4:]
}

// Expiry reports whether a card expiring in month/year is still usable at
// now. Two-digit years are taken as 20xx. The check is per calendar month:
// a card expiring this month is valid.
func Expiry(month, year string, now time.Time) bool {
	month, year = strings.TrimSpace(month), strings.TrimSpace(year)
	expMonth, err := strconv.Atoi(month)
	if err != nil {
		return false
	}
	expYear, err := strconv.Atoi(year)
	if err != nil || expYear < 0 {
		return false
	}
	if len(year) == 2 {
		expYear += 2000
	}
	if expMonth < 1 || expMonth > 12 {
		return false
	}

	curYear, curMonth := now.Year(), int(now.Month())
	if expYear < curYear {
		return false
	}
	if expYear == curYear && expMonth < curMonth {
		return false
	}
	return true
}
