package enums

import "fmt"

// PaymentStatus mirrors the payment_status Postgres enum on investments.
// Verification only ever writes completed; pending and failed exist for
// records reconciled by hand.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

var paymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusPending:   {},
	PaymentStatusCompleted: {},
	PaymentStatusFailed:    {},
}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool {
	_, ok := paymentStatuses[p]
	return ok
}

// ParsePaymentStatus is case-sensitive; callers lower-case user input first.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	if p := PaymentStatus(value); p.IsValid() {
		return p, nil
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
