package service

import (
	"strings"
	"time"

	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

// TaxPercent is applied to the nightly subtotal.
const TaxPercent = 10

// Bounds keep a stay total well inside int64 cents.
const (
	MaxStayNights    = 365
	MaxPricePerNight = 10_000_000
)

const day = 24 * time.Hour

func parseStayDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseStay validates a check-in/check-out pair and returns the number of nights.
func ParseStay(checkIn, checkOut string, today time.Time) (time.Time, time.Time, int, error) {
	if strings.TrimSpace(checkIn) == "" {
		return time.Time{}, time.Time{}, 0, invalid("MISSING_CHECK_IN_DATE", "Check-in date is required")
	}
	if strings.TrimSpace(checkOut) == "" {
		return time.Time{}, time.Time{}, 0, invalid("MISSING_CHECK_OUT_DATE", "Check-out date is required")
	}

	in, ok := parseStayDate(checkIn)
	if !ok {
		return time.Time{}, time.Time{}, 0, invalid("INVALID_CHECK_IN_DATE", "Check-in date is not a valid date")
	}
	out, ok := parseStayDate(checkOut)
	if !ok {
		return time.Time{}, time.Time{}, 0, invalid("INVALID_CHECK_OUT_DATE", "Check-out date is not a valid date")
	}

	today = today.UTC()
	if in.Before(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)) {
		return time.Time{}, time.Time{}, 0, invalid("INVALID_CHECK_IN_DATE", "Check-in date cannot be in the past")
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, 0, invalid("INVALID_DATE_RANGE", "Check-out date must be after check-in date")
	}

	nights := int(out.Sub(in) / day)
	if nights > MaxStayNights {
		return time.Time{}, time.Time{}, 0, invalid("INVALID_DATE_RANGE", "A stay cannot be longer than 365 nights")
	}
	return in, out, nights, nil
}

func Price(pricePerNight int64, nights int) transport.Quote {
	subtotal := pricePerNight * int64(nights)
	tax := (subtotal*TaxPercent + 50) / 100
	return transport.Quote{
		NumNights:     nights,
		PricePerNight: pricePerNight,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         subtotal + tax,
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r != ' ' && r != '-' {
			return ""
		}
	}
	return b.String()
}

// ValidatePayment checks the payment form. No gateway is called and nothing but
// the method is stored.
func ValidatePayment(method string, p *transport.PaymentDetails) error {
	if strings.TrimSpace(method) == "" {
		return invalid("MISSING_PAYMENT_METHOD", "Payment method is required")
	}
	if !models.IsPaymentMethod(method) {
		return invalid("INVALID_PAYMENT_METHOD", "Payment method must be credit, debit or paypal")
	}
	if p == nil {
		return invalid("INVALID_PAYMENT_DETAILS", "Payment details are required")
	}

	if method == models.PaymentPayPal {
		if !strings.Contains(p.PayPalEmail, "@") {
			return invalid("INVALID_PAYMENT_DETAILS", "Please enter a valid PayPal email")
		}
		return nil
	}

	if len(digitsOnly(p.CardNumber)) != 16 {
		return invalid("INVALID_PAYMENT_DETAILS", "Please enter a valid 16-digit card number")
	}
	parts := strings.Split(p.ExpiryDate, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 ||
		digitsOnly(parts[0]) != parts[0] || digitsOnly(parts[1]) != parts[1] {
		return invalid("INVALID_PAYMENT_DETAILS", "Please enter expiry date as MM/YY")
	}
	if m := (parts[0][0]-'0')*10 + (parts[0][1] - '0'); m < 1 || m > 12 {
		return invalid("INVALID_PAYMENT_DETAILS", "Please enter a valid month (01-12)")
	}
	if cvv := digitsOnly(p.CVV); cvv != p.CVV || len(cvv) < 3 || len(cvv) > 4 {
		return invalid("INVALID_PAYMENT_DETAILS", "Please enter a valid CVV (3-4 digits)")
	}
	if len(strings.TrimSpace(p.CardholderName)) < 3 {
		return invalid("INVALID_PAYMENT_DETAILS", "Please enter the cardholder name")
	}
	return nil
}
