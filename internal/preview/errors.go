package preview

import (
	"errors"
	"fmt"
)

// Error kinds reported by the pipeline. Callers match them with errors.Is.
var (
	ErrSizeExceeded         = errors.New("document exceeds size limit")
	ErrPageCountExceeded    = errors.New("document exceeds page limit")
	ErrEmptyDocument        = errors.New("document has no pages")
	ErrUnreadableDocument   = errors.New("document is unreadable")
	ErrEncoderUnavailable   = errors.New("encoder unavailable")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// FormatError reports a failure confined to one output format.
type FormatError struct {
	Format Format
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format %s: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is fatal before any rendering starts.
func IsValidation(err error) bool {
	return errors.Is(err, ErrSizeExceeded) ||
		errors.Is(err, ErrPageCountExceeded) ||
		errors.Is(err, ErrInvalidConfiguration)
}
