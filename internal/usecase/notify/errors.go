package notify

import (
	"errors"
	"fmt"

	"github.com/Tommy88/xparser/internal/domain/entity"
)

// Sentinel errors for notify use case operations.
var (
	// ErrChannelDisabled indicates that Send() was called on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidMessage indicates that a message has no media reference to send.
	ErrInvalidMessage = fmt.Errorf("%w: message has no media reference", entity.ErrInvalidInput)
)
