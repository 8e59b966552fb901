package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat is returned when a blob matches no known format.
	ErrUnknownFormat = errors.New("codec: unknown blob format")

	// ErrCorrupt is returned when a blob cannot be decoded.
	ErrCorrupt = errors.New("codec: corrupt blob")
)

// ErrEntryName indicates a zip entry whose name is not a message id.
type ErrEntryName struct {
	Name string
}

func (e *ErrEntryName) Error() string {
	return fmt.Sprintf("codec: zip entry %q is not a message id", e.Name)
}

func (e *ErrEntryName) Unwrap() error { return ErrCorrupt }

func corrupt(format string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCorrupt, format, err)
}
