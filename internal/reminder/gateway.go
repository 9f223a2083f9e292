package reminder

import "context"

// Gateway places outbound voice calls. Any non-nil error is one uniform
// failure; implementations own their timeouts and credentials.
type Gateway interface {
	PlaceCall(ctx context.Context, phoneNumber string) error
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, phoneNumber string) error

// PlaceCall implements Gateway.
func (f GatewayFunc) PlaceCall(ctx context.Context, phoneNumber string) error {
	return f(ctx, phoneNumber)
}
