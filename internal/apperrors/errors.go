package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind is the coarse error category surfaced to clients. Repository level
// errors are classified into exactly one kind so that handlers can map them
// to status codes, and so that retry policy can be applied to network
// failures only.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNetwork
	KindAuthentication
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of err, or KindUnknown when err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Classify tags err with an error kind, derived from the underlying cause.
// Already classified errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		// integrity constraint violations, invalid text representations
		case strings.HasPrefix(pgErr.Code, "23"), strings.HasPrefix(pgErr.Code, "22"):
			return Wrap(KindValidation, err)
		// connection exceptions and insufficient resources
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "53"):
			return Wrap(KindNetwork, err)
		default:
			return Wrap(KindServer, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindNetwork, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Wrap(KindNetwork, err)
	}

	return Wrap(KindUnknown, err)
}

// IsRetryable reports whether the operation that produced err may be retried.
// Only network kind failures are, everything else is permanent.
func IsRetryable(err error) bool {
	return KindOf(Classify(err)) == KindNetwork
}

// HTTPStatus maps an error kind to the response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
