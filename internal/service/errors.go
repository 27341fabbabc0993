package service

// AuthError reports a rejected credential. A credential that fails on
// the rich path fails identically on the legacy path, so auth failures
// never trigger the fallback cascade.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// ValidationError reports malformed caller input. Like auth failures,
// validation failures are deterministic and never cascade.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
