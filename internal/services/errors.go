package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/desertthunder/libris/internal/shared"
)

// StatusError is a non-2xx response from the catalog API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	if body := strings.TrimSpace(e.Body); body != "" {
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		msg += ": " + body
	}
	return msg
}

// Unwrap lets callers match [shared.ErrAPIRequest].
func (e *StatusError) Unwrap() error { return shared.ErrAPIRequest }

// Is additionally matches [shared.ErrUnauthorized] for 401 and 403 responses.
func (e *StatusError) Is(target error) bool {
	if target == shared.ErrUnauthorized {
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// Identity provider error codes the client reacts to.
const (
	CodeUserNotConfirmed  = "UserNotConfirmedException"
	CodeNotAuthorized     = "NotAuthorizedException"
	CodeUsernameExists    = "UsernameExistsException"
	CodeCodeMismatch      = "CodeMismatchException"
	CodeInvalidPassword   = "InvalidPasswordException"
	CodeChallengeRequired = "ChallengeRequired"
)

// IdentityError is a rejection from the identity provider.
type IdentityError struct {
	Code    string
	Message string
}

func (e *IdentityError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

// Unwrap lets callers match [shared.ErrAuthFailed].
func (e *IdentityError) Unwrap() error { return shared.ErrAuthFailed }

// Unconfirmed reports whether the account still awaits its verification code.
func (e *IdentityError) Unconfirmed() bool { return e.Code == CodeUserNotConfirmed }

// identityError converts an SDK error into an [*IdentityError] when the provider sent one,
// and otherwise marks it as a transport failure.
func identityError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &IdentityError{Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage()}
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrServiceUnavailable, op, err)
}
