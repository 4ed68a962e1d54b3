package tracking

import "errors"

// Sentinel errors for common conditions.
var (
	// ErrTrackingUnavailable is returned by a Platform when no head pose can be read this tick.
	ErrTrackingUnavailable = errors.New("tracking: head tracking unavailable")

	// ErrNoReference is returned by StaticReferenceSource when no reference transform is set.
	ErrNoReference = errors.New("tracking: reference transform not assigned")

	// ErrMissingTransform is returned when a required rig transform is not assigned.
	ErrMissingTransform = errors.New("tracking: rig transform not assigned")

	// ErrNoScratchAnchor is returned by TransferTransform when the rig has no scratch anchor.
	ErrNoScratchAnchor = errors.New("tracking: space transfer anchor not assigned")

	// ErrTransferInProgress is returned when TransferTransform is re-entered.
	ErrTransferInProgress = errors.New("tracking: space transfer already in progress")

	// ErrTransferCycle is returned when the source or target space is the subject or lies below it.
	ErrTransferCycle = errors.New("tracking: transfer space inside subject")

	// ErrQueueFull is returned by Submit when the command queue cannot take more work.
	ErrQueueFull = errors.New("tracking: command queue full")

	// ErrInvalidConfig is wrapped by ConfigError.
	ErrInvalidConfig = errors.New("tracking: invalid config")
)

// ConfigError describes a single invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "tracking: " + e.Field + ": " + e.Message
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
