package payments

import "github.com/eventia/backend/internal/models"

// MapGatewayStatus translates the gateway's transaction_status/fraud_status
// pair into an internal payment status. Unknown combinations stay pending
// rather than guessing; a later notification will resolve them.
func MapGatewayStatus(transactionStatus, fraudStatus string) string {
	switch transactionStatus {
	case "capture":
		switch fraudStatus {
		case "challenge":
			return models.GatewayStatusChallenge
		case "accept":
			return models.GatewayStatusSuccess
		}
		return models.GatewayStatusPending
	case "settlement":
		return models.GatewayStatusSuccess
	case "cancel", "deny", "expire":
		return models.GatewayStatusFailed
	case "pending":
		return models.GatewayStatusPending
	}
	return models.GatewayStatusPending
}
