// package services defines interface Recommender for the remote playlist recommendation endpoint
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// GenericFailure is shown when the service gives no message of its own.
const GenericFailure = "Failed to fetch recommendations"

// Recommender is the external collaborator consumed by the view controller.
type Recommender interface {
	// Recommend sends a normalized prompt and returns a successful recommendation.
	//
	// A response with success:false or a non-2xx status is returned as a [*ServiceError];
	// network and decoding failures as a [*TransportError].
	Recommend(ctx context.Context, prompt string) (*models.Recommendation, error)
}

// TransportError reports a request that never produced a usable response: network failure, unreadable body or malformed JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %s: %v", shared.ErrTransport, e.Op, e.Err)
}

// Unwrap exposes both [shared.ErrTransport] and the cause, so context cancellation remains detectable.
func (e *TransportError) Unwrap() []error {
	return []error{shared.ErrTransport, e.Err}
}

// ServiceError is a well-formed response that reports failure, either through its HTTP status or success:false.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v (status %d): %s", shared.ErrService, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%v (status %d)", shared.ErrService, e.StatusCode)
}

func (e *ServiceError) Unwrap() error {
	return shared.ErrService
}

// IsTransportError reports whether err is or wraps a [*TransportError].
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsServiceError reports whether err is or wraps a [*ServiceError].
func IsServiceError(err error) bool {
	var target *ServiceError
	return errors.As(err, &target)
}

// UserMessage returns the text shown on the error screen for err: the service-provided message when there is one,
// otherwise [GenericFailure].
func UserMessage(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return GenericFailure
}

func isSuccessStatus(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
