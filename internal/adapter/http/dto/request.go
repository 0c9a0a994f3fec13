package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrMalformedAmount is returned for bodies that do not hold a whole number.
var ErrMalformedAmount = errors.New("amount must be a whole number")

// maxInt64Digits is the number of decimal digits of math.MaxInt64.
const maxInt64Digits = 19

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// AmountRequest is the body of a charge or use request. The body may also be
// a bare JSON number, as in `100`.
type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// ParseAmount decodes a charge or use body. Sign is not checked here; the
// point engine rejects non-positive amounts itself.
func ParseAmount(body []byte) (int64, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return 0, fmt.Errorf("%w: empty body", ErrMalformedAmount)
	}

	var amount decimal.Decimal

	if body[0] == '{' {
		var req AmountRequest

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedAmount, err)
		}
		if req.Amount == nil {
			return 0, fmt.Errorf("%w: missing amount", ErrMalformedAmount)
		}
		amount = *req.Amount
	} else if err := json.Unmarshal(body, &amount); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedAmount, err)
	}

	if amount.IsZero() {
		return 0, nil
	}

	// Exponent notation can describe huge values in a few bytes; check the
	// magnitude before anything rescales the coefficient.
	digits, exp := int64(amount.NumDigits()), int64(amount.Exponent())
	if exp > 0 && digits+exp > maxInt64Digits {
		return 0, fmt.Errorf("%w: out of range", ErrMalformedAmount)
	}
	if exp < 0 && -exp > digits {
		return 0, fmt.Errorf("%w: fractional amount", ErrMalformedAmount)
	}

	if !amount.IsInteger() {
		return 0, fmt.Errorf("%w: fractional amount", ErrMalformedAmount)
	}

	if amount.GreaterThan(maxAmount) || amount.LessThan(minAmount) {
		return 0, fmt.Errorf("%w: out of range", ErrMalformedAmount)
	}

	return amount.IntPart(), nil
}
