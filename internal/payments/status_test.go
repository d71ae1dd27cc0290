package payments

import (
	"testing"

	"github.com/eventia/backend/internal/models"
)

func TestMapGatewayStatus(t *testing.T) {
	cases := []struct {
		transaction string
		fraud       string
		want        string
	}{
		{"capture", "challenge", models.GatewayStatusChallenge},
		{"capture", "accept", models.GatewayStatusSuccess},
		{"capture", "", models.GatewayStatusPending},
		{"settlement", "", models.GatewayStatusSuccess},
		{"settlement", "challenge", models.GatewayStatusSuccess},
		{"cancel", "", models.GatewayStatusFailed},
		{"deny", "", models.GatewayStatusFailed},
		{"expire", "", models.GatewayStatusFailed},
		{"pending", "", models.GatewayStatusPending},
		{"refund", "", models.GatewayStatusPending},
		{"", "", models.GatewayStatusPending},
	}
	for _, tc := range cases {
		if got := MapGatewayStatus(tc.transaction, tc.fraud); got != tc.want {
			t.Errorf("MapGatewayStatus(%q, %q) = %q, want %q", tc.transaction, tc.fraud, got, tc.want)
		}
	}
}
