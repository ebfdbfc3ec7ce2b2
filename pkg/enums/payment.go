package enums

// PaymentStatus tracks gateway settlement for an order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentOutcome is the result reported by the gateway for a payment attempt.
type PaymentOutcome string

const (
	PaymentOutcomeCaptured PaymentOutcome = "captured"
	PaymentOutcomeFailed   PaymentOutcome = "failed"
)
