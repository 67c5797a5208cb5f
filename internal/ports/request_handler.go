package ports

import (
	"net/http"

	"github.com/architeacher/svc-mq-factory/internal/adapters/http/handlers"
)

// RequestHandler serves every HTTP route and renders errors raised while binding them.
type RequestHandler interface {
	handlers.ServerInterface

	HandleRequestError(w http.ResponseWriter, r *http.Request, err error)
}
