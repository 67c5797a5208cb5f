package adapters

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/architeacher/svc-mq-factory/internal/adapters/http/handlers"
	"github.com/architeacher/svc-mq-factory/internal/adapters/http/mappers"
	"github.com/architeacher/svc-mq-factory/internal/config"
	"github.com/architeacher/svc-mq-factory/internal/domain"
	"github.com/architeacher/svc-mq-factory/internal/infrastructure"
	"github.com/architeacher/svc-mq-factory/internal/ports"
	"github.com/architeacher/svc-mq-factory/internal/service"
)

const (
	messageQueryParam   = "message"
	defaultMaxBodyBytes = 1 << 20
)

var _ ports.RequestHandler = (*RequestHandler)(nil)

type RequestHandler struct {
	messages      service.MessageService
	healthChecker ports.HealthChecker
	cfg           config.MessageQueuesConfig
	maxBodyBytes  int64
	version       string
	logger        infrastructure.Logger
}

func NewRequestHandler(
	messages service.MessageService,
	healthChecker ports.HealthChecker,
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
) *RequestHandler {
	maxBodyBytes := cfg.HTTPServer.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	return &RequestHandler{
		messages:      messages,
		healthChecker: healthChecker,
		cfg:           cfg.MessageQueues,
		maxBodyBytes:  maxBodyBytes,
		version:       cfg.AppConfig.ServiceVersion,
		logger:        logger.Component("request-handler"),
	}
}

// GetMessage implements ServerInterface.GetMessage
func (h *RequestHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	h.GetQueueMessage(w, r, h.cfg.ReceiveIdentifier)
}

// PostMessage implements ServerInterface.PostMessage
func (h *RequestHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	h.PostQueueMessage(w, r, h.cfg.PublishIdentifier)
}

// GetQueueMessage implements ServerInterface.GetQueueMessage
func (h *RequestHandler) GetQueueMessage(w http.ResponseWriter, r *http.Request, identifier string) {
	msg, err := h.messages.Fetch(r.Context(), identifier)
	if err != nil {
		h.writeError(w, identifier, err)

		return
	}

	if !msg.Found {
		w.WriteHeader(http.StatusNoContent)

		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, msg.Body)
}

// PostQueueMessage implements ServerInterface.PostQueueMessage. The message is
// taken from the "message" query parameter, or from the body when absent.
func (h *RequestHandler) PostQueueMessage(w http.ResponseWriter, r *http.Request, identifier string) {
	message, err := h.readMessage(w, r)
	if err != nil {
		h.writeError(w, identifier, err)

		return
	}

	if err := h.messages.Publish(r.Context(), identifier, message); err != nil {
		h.writeError(w, identifier, err)

		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ListQueues implements ServerInterface.ListQueues
func (h *RequestHandler) ListQueues(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, handlers.QueuesResponse{
		Queues: h.messages.Queues(),
	})
}

// HealthCheck implements ServerInterface.HealthCheck
func (h *RequestHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	result := h.healthChecker.CheckHealth(r.Context())

	statusCode := http.StatusOK
	if result.OverallStatus == domain.HealthResponseStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, handlers.HealthResponse{
		Status:    result.OverallStatus,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Uptime:    result.Uptime,
		Queues:    result.Queues,
	})
}

// ReadinessCheck implements ServerInterface.ReadinessCheck
func (h *RequestHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	result := h.healthChecker.CheckReadiness(r.Context())

	statusCode := http.StatusOK
	if result.OverallStatus != domain.ReadinessResponseStatusReady {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, handlers.ReadinessResponse{
		Status:    result.OverallStatus,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Queues:    result.Queues,
	})
}

// HandleRequestError is the ErrorHandlerFunc for routing level errors.
func (h *RequestHandler) HandleRequestError(w http.ResponseWriter, _ *http.Request, err error) {
	h.writeError(w, "", domain.NewDomainError("bad_request", err.Error(), http.StatusBadRequest, domain.ErrInvalidRequest))
}

func (h *RequestHandler) readMessage(w http.ResponseWriter, r *http.Request) (string, error) {
	if message := r.URL.Query().Get(messageQueryParam); message != "" {
		return message, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return "", domain.ErrMessageTooLarge
		}

		return "", domain.NewDomainError("bad_request", "failed to read request body", http.StatusBadRequest, err)
	}

	return string(body), nil
}

func (h *RequestHandler) writeError(w http.ResponseWriter, identifier string, err error) {
	domainErr := mappers.ErrorToDomain(err)

	if domainErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("identifier", identifier).Msg("request failed")
	}

	writeJSON(w, domainErr.StatusCode, handlers.ErrorResponse{
		Error:      domainErr.Message,
		Code:       domainErr.Code,
		Identifier: identifier,
		StatusCode: domainErr.StatusCode,
		Timestamp:  time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
