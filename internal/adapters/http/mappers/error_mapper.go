package mappers

import (
	"context"
	"errors"
	"net/http"

	"github.com/architeacher/svc-mq-factory/internal/domain"
	"github.com/architeacher/svc-mq-factory/pkg/queue"
)

type errorMapping struct {
	target     error
	code       string
	message    string
	statusCode int
}

// Checked in order, the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrMessageTooLarge, "payload_too_large", "message body too large", http.StatusRequestEntityTooLarge},
	{queue.ErrConfigurationNotFound, "queue_not_configured", "queue identifier is not configured", http.StatusNotFound},
	{queue.ErrNotAuthorizedForPublish, "publish_not_allowed", "queue does not allow publishing", http.StatusForbidden},
	{queue.ErrNotAuthorizedForReceive, "receive_not_allowed", "queue does not allow receiving", http.StatusForbidden},
	{queue.ErrDecode, "unprocessable_message", "message could not be decoded", http.StatusUnprocessableEntity},
	{queue.ErrDeserialization, "unprocessable_message", "message could not be deserialized", http.StatusUnprocessableEntity},
	{queue.ErrSerialization, "unprocessable_message", "message could not be serialized", http.StatusUnprocessableEntity},
	{queue.ErrConnection, "queue_unavailable", "message broker is unreachable", http.StatusServiceUnavailable},
	{queue.ErrQueueNotFound, "queue_unavailable", "queue does not exist on the broker", http.StatusServiceUnavailable},
	{queue.ErrQueueDeclare, "queue_unavailable", "queue could not be declared", http.StatusServiceUnavailable},
	{queue.ErrBroker, "queue_unavailable", "message broker operation failed", http.StatusServiceUnavailable},
	{queue.ErrQueueClosed, "queue_unavailable", "queue is closed", http.StatusServiceUnavailable},
	{queue.ErrFactoryClosed, "queue_unavailable", "service is shutting down", http.StatusServiceUnavailable},
	{context.DeadlineExceeded, "timeout", "request timed out", http.StatusGatewayTimeout},
}

// ErrorToDomain maps service and queue errors to an HTTP facing DomainError.
func ErrorToDomain(err error) *domain.DomainError {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			return newDomainError(mapping, err)
		}
	}

	return domain.NewDomainError("internal_server_error", "internal server error", http.StatusInternalServerError, err)
}

func newDomainError(mapping errorMapping, cause error) *domain.DomainError {
	domainErr := domain.NewDomainError(mapping.code, mapping.message, mapping.statusCode, cause)

	var queueErr *queue.Error
	if errors.As(cause, &queueErr) && queueErr.Identifier != "" {
		domainErr.WithDetails("identifier", queueErr.Identifier)
	}

	return domainErr
}
