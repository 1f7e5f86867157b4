package paginate

import "fmt"

// ValidationError reports an out-of-range or malformed pagination option.
// It is always user-correctable and never the result of a network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %q: %s", e.Field, e.Reason)
}

// TransportError reports a failed page fetch. The engine performs no
// internal retries and returns no partial data: Page and Collected exist so
// callers can log how far pagination progressed before the failure.
type TransportError struct {
	// Page is the zero-based index of the page whose fetch failed.
	Page int
	// Collected is the number of nodes accumulated before the failure.
	Collected int
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("page %d fetch failed after %d items: %v", e.Page, e.Collected, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConfigurationError reports that a query did not resolve to a connection,
// which indicates a bug in the tool definition rather than a user error.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "pagination misconfigured: " + e.Detail
}
