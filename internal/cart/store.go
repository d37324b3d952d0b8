package cart

import (
	"context"
	"errors"
)

var ErrCartNotFound = errors.New("cart not found")

// Store persists cart state keyed by device.
type Store interface {
	Load(ctx context.Context, deviceID string) (State, error)
	Save(ctx context.Context, deviceID string, state State) error
}
