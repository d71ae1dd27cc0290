package models

import "time"

// Gateway payment status values. "challenge" is a fraud-review hold
// reported by the gateway; it resolves to success or failed on a later
// notification.
const (
	GatewayStatusPending   = "pending"
	GatewayStatusSuccess   = "success"
	GatewayStatusFailed    = "failed"
	GatewayStatusChallenge = "challenge"
)

// Payment tracks a gateway checkout for a paid registration. order_id is
// the idempotency key across retried webhook deliveries.
type Payment struct {
	ID              int64      `json:"id"`
	RegistrationID  int64      `json:"registration_id"` // operational row
	OrderID         string     `json:"order_id"`
	Amount          int64      `json:"amount"`
	Status          string     `json:"status"`
	GatewayToken    string     `json:"gateway_token,omitempty"`
	PaymentType     string     `json:"payment_type,omitempty"`
	TransactionTime *time.Time `json:"transaction_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
