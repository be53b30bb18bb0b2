package client

import (
	"net/http"

	"github.com/pkg/errors"
)

// ConnectivityMessage is what users see for any transport failure.
const ConnectivityMessage = "Unable to connect to server."

var (
	// ErrCacheInconsistent is returned when the server confirmed an edit for
	// a record the local cache does not hold.
	ErrCacheInconsistent = errors.New("record missing from local cache")

	// ErrBusy is returned instead of queueing when the controller is
	// configured to reject overlapping changes.
	ErrBusy = errors.New("another change is still in progress")
)

// TransportError means the request never produced a usable envelope: the
// connection failed, timed out, the server answered 5xx, or the body could
// not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + ConnectivityMessage + " (" + e.Err.Error() + ")"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError is a failure envelope returned by the server.
type RemoteError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// IsNotFound reports whether the server answered 404 for the target record.
func IsNotFound(err error) bool {
	var rErr *RemoteError
	return errors.As(err, &rErr) && rErr.Status == http.StatusNotFound
}

// IsTransport reports whether err is a *TransportError.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
