// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package diag

import "go.uber.org/multierr"

// Combine folds every Error-severity diagnostic filed so far into a single
// error value, or nil if none were filed. pkg/driver gates each phase
// barrier on Engine.HasErrors and, once it stops, prints every diagnostic
// and returns this combined error; pkg/cmd only checks it for nil to pick
// the exit status.
func (e *Engine) Combine() error {
	var errs []error

	for _, d := range e.diags {
		if d.Severity == Error {
			errs = append(errs, d)
		}
	}

	return multierr.Combine(errs...)
}
