package notifier

import "errors"

var (
	// ErrDeliveryFailed — sink не смог доставить уведомление.
	ErrDeliveryFailed = errors.New("notification delivery failed")

	// ErrUnexpectedMessage — в очередь пришло сообщение чужого типа.
	ErrUnexpectedMessage = errors.New("unexpected message type")
)
