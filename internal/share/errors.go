package share

import "errors"

var (
	// ErrUnrecognizedPayload is returned when a provider's loaded value does
	// not have the shape its capability requires.
	ErrUnrecognizedPayload = errors.New("unrecognized payload")
	// ErrNoProvidersRecognized is returned when a share-target contributes no
	// provider-derived values at all.
	ErrNoProvidersRecognized = errors.New("recognized no providers from share input attachments")
	// ErrContainerUnavailable is returned when a shared container identifier
	// does not resolve to a usable directory.
	ErrContainerUnavailable = errors.New("shared container unavailable")
	// ErrFileRelocationFailed wraps copy and delete failures while moving a
	// file into the shared container.
	ErrFileRelocationFailed = errors.New("file relocation failed")
	// ErrUnsupportedDataShape marks a generic-data payload with no actionable
	// structure. It is logged and skipped, never returned to callers.
	ErrUnsupportedDataShape = errors.New("unsupported data shape")
)
