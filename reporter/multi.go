package reporter

import (
	"context"
	"errors"
)

// Multi fans a report out to every reporter, in order. All reporters run even
// when one fails; the errors are joined.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, r *Report) error {
	var errs []error
	for _, rep := range m {
		if err := rep.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
