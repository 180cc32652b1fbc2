package errors

import "fmt"

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeConfiguration  ErrCode = "CONFIGURATION"
	ErrCodeAuthentication ErrCode = "AUTHENTICATION"
	ErrCodeAccess         ErrCode = "ACCESS"
	ErrCodeRateLimited    ErrCode = "RATE_LIMITED"
	ErrCodeNetwork        ErrCode = "NETWORK"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Repo    string // repository the error relates to, if any
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Repo != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Repo)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: message,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeAuthentication,
		Message: message,
		Err:     err,
	}
}

// NewAccessError creates an error for a repository that returned a
// permission-denied or not-found response
func NewAccessError(repo, message string) *AppError {
	return &AppError{
		Code:    ErrCodeAccess,
		Message: message,
		Repo:    repo,
	}
}

// NewRateLimitedError creates an error for an API rate limit that could not
// be waited out
func NewRateLimitedError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: message,
		Err:     err,
	}
}

// NewNetworkError creates an error for an unexpected transport failure
func NewNetworkError(repo string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: "network request failed",
		Repo:    repo,
		Err:     err,
	}
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsAuthentication checks if the error is an authentication error
func IsAuthentication(err error) bool {
	return hasCode(err, ErrCodeAuthentication)
}

// IsAccess checks if the error is a per-repository access error
func IsAccess(err error) bool {
	return hasCode(err, ErrCodeAccess)
}

// IsRateLimited checks if the error is a rate limited error
func IsRateLimited(err error) bool {
	return hasCode(err, ErrCodeRateLimited)
}

func hasCode(err error, code ErrCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
