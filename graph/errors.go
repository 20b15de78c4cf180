package graph

import (
	"errors"
	"fmt"

	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
)

// Sentinel errors callers can branch on with errors.Is.
var (
	// ErrAuthenticationFailed means the interactive device-code flow did not
	// complete (declined, code expired, or provider rejected the credentials).
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrSessionExpired is an authorization failure on an otherwise valid call;
	// the gate re-authenticates and replays exactly once before escalating.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidQuery is a malformed MailQuery, rejected before any I/O.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrFolderListing means the top-level folder enumeration failed outright.
	ErrFolderListing = errors.New("folder listing failed")
	// ErrOperationFailed is a mutating call that failed after authentication;
	// never retried to avoid duplicate sends/moves.
	ErrOperationFailed = errors.New("operation failed")
	// ErrNotFound means the referenced message/folder/event id does not exist.
	ErrNotFound = errors.New("not found")
)

// GraphError carries the provider response for a failed Graph call.
type GraphError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *GraphError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

// Unwrap maps authorization and not-found statuses onto the sentinels so the
// gate and callers can branch without inspecting status codes.
func (e *GraphError) Unwrap() error {
	switch e.Status {
	case 401, 403:
		return ErrSessionExpired
	case 404:
		return ErrNotFound
	}
	return nil
}

// classifySDKError converts msgraph SDK odata errors into GraphError.
func classifySDKError(op string, err error) error {
	if err == nil {
		return nil
	}
	var odErr *odataerrors.ODataError
	if !errors.As(err, &odErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	ge := &GraphError{Op: op, Status: odErr.ResponseStatusCode, Message: odErr.Error()}
	if main := odErr.GetErrorEscaped(); main != nil {
		if c := main.GetCode(); c != nil {
			ge.Code = *c
		}
		if m := main.GetMessage(); m != nil {
			ge.Message = *m
		}
	}
	return ge
}

// mutationError wraps a failed write so it reports as ErrOperationFailed with
// the provider message preserved. Authorization failures pass through for the
// gate's single replay; not-found keeps its own class so callers can branch.
func mutationError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %v", ErrOperationFailed, op, target, err)
}
