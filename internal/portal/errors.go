package portal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/five82/regsync/internal/endpoints"
	"github.com/five82/regsync/internal/transport"
)

var (
	ErrTransport    = errors.New("registry unreachable")
	ErrDiscovery    = errors.New("no login endpoint found at this base URL")
	ErrAuth         = errors.New("login rejected")
	ErrRemote       = errors.New("registry returned an error")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoSession    = errors.New("no active session")
)

// TransportError means the registry could not be reached at all.
type TransportError struct {
	Op  endpoints.Operation
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// DiscoveryError means every candidate path answered 404.
type DiscoveryError struct {
	Op      endpoints.Operation
	BaseURL string
	Tried   []string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s: no endpoint found at %s (tried %s)", e.Op, e.BaseURL, strings.Join(e.Tried, ", "))
}

func (e *DiscoveryError) Unwrap() error { return ErrDiscovery }

// AuthError means a login endpoint ran and declined the credentials.
// Malformed is set when the response could not be interpreted at all.
type AuthError struct {
	Path       string
	StatusCode int
	Reason     string
	Malformed  bool
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login %s returned status %d: %s", e.Path, e.StatusCode, e.Reason)
}

func (e *AuthError) Unwrap() error { return ErrAuth }

// RemoteError is a post-login operation that answered non-2xx or with an error value.
type RemoteError struct {
	Op         endpoints.Operation
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Op, e.StatusCode, body)
}

func (e *RemoteError) Unwrap() error { return ErrRemote }

// IsTransport reports whether err means the registry could not be reached.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// UserMessage turns err into a sentence a teacher can act on.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		authErr   *AuthError
		remoteErr *RemoteError
	)
	switch {
	case errors.Is(err, ErrInvalidInput):
		return err.Error()
	case errors.Is(err, ErrNoSession):
		return "Log in to the registry before syncing."
	case errors.Is(err, ErrTransport):
		return "Could not reach the registry. Check the internet connection and try again."
	case errors.Is(err, ErrDiscovery):
		return "No registry service was found at this address. Check the server address."
	case errors.As(err, &authErr):
		if authErr.Malformed {
			return "The registry answered the login with an unexpected response. Try again later."
		}
		return "Wrong username or password."
	case errors.As(err, &remoteErr):
		return fmt.Sprintf("The registry rejected the request (status %d).", remoteErr.StatusCode)
	default:
		return err.Error()
	}
}

func wrapSendErr(op endpoints.Operation, err error) error {
	if transport.IsFailure(err) {
		return &TransportError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
