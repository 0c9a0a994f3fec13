package domain

// DefaultMaxBalance is the balance ceiling used when none is configured.
const DefaultMaxBalance int64 = 1_000_000

// ValidateAmount rejects non-positive amounts for accountID.
func ValidateAmount(accountID, amount int64) error {
	if amount <= 0 {
		return &PointError{Kind: KindInvalidAmount, AccountID: accountID, Amount: amount}
	}
	return nil
}
