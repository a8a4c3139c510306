package errors

import stderrors "errors"

// stdErrorsAs wraps the standard library's errors.As; this package is
// itself named errors, so the import needs an alias at every call site.
func stdErrorsAs(err error, target **Error) bool {
	return stderrors.As(err, target)
}
