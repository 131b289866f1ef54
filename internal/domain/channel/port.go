package channel

import "context"

//go:generate go run go.uber.org/mock/mockgen -source=port.go -destination=../../mocks/mock_channel.go -package=mocks

// Authenticator validates the bearer credential of an inbound activity.
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string, a Activity) error
}

// Sender transmits an outbound activity back to the channel.
type Sender interface {
	Send(ctx context.Context, out Activity) error
}

// TurnHandler processes one inbound activity.
type TurnHandler interface {
	OnTurn(ctx context.Context, a Activity) error
}
