package domain

import "campus-billing/internal/money"

// PaymentResult reports how far a payment application got. SettledBillIDs
// includes the target bill. UnabsorbedCredit is whatever was left after the
// cascade ran out of pending bills; persisting it as account credit is the
// caller's responsibility.
type PaymentResult struct {
	TargetBillID           string       `json:"target_bill_id"`
	SettledBillIDs         []string     `json:"settled_bill_ids"`
	PartiallyAppliedBillID string       `json:"partially_applied_bill_id,omitempty"`
	UnabsorbedCredit       money.Amount `json:"unabsorbed_credit"`
	TransactionRef         string       `json:"transaction_ref"`
}
