package samsung2878

import "errors"

// Domain errors for the Samsung 2878 protocol client.
// Check with errors.Is(); both invalidate the current connection and
// require a full Disconnect before reuse.
var (
	// ErrConnection is returned for socket, TLS, timeout, and peer-close
	// failures, and for operations attempted on a connection that is not
	// open and authenticated.
	ErrConnection = errors.New("samsung2878: connection failed")

	// ErrAuth is returned when the unit rejects the authentication token.
	// Retrying with the same token will not succeed.
	ErrAuth = errors.New("samsung2878: authentication failed")

	// ErrInvalidValue indicates a control value outside the device's
	// accepted range.
	ErrInvalidValue = errors.New("samsung2878: invalid value")
)
