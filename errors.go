package elemental

import (
	"fmt"
)

// InvalidateError reports a failed invalidation. Either the revision bump,
// the provider delete, or both may have failed; the surviving cache state is
// described per field.
type InvalidateError struct {
	Entity  string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("invalidate %q failed: rev bump and delete failed: bump=%v; delete=%v",
			e.Entity, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("invalidate %q: rev bump failed: %v", e.Entity, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Entity, e.DelErr)
	default:
		return fmt.Sprintf("invalidate %q: unknown error", e.Entity)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
