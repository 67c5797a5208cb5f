package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

var ErrMissingIdentifier = errors.New("queue identifier is required")

type (
	// ServerInterface is implemented by the request handler.
	ServerInterface interface {
		// Fetch one message from the default receive queue.
		// (GET /v1/messages)
		GetMessage(w http.ResponseWriter, r *http.Request)

		// Publish one message to the default publish queue.
		// (POST /v1/messages)
		PostMessage(w http.ResponseWriter, r *http.Request)

		// (GET /v1/queues)
		ListQueues(w http.ResponseWriter, r *http.Request)

		// (GET /v1/queues/{identifier}/messages)
		GetQueueMessage(w http.ResponseWriter, r *http.Request, identifier string)

		// (POST /v1/queues/{identifier}/messages)
		PostQueueMessage(w http.ResponseWriter, r *http.Request, identifier string)

		// (GET /v1/health)
		HealthCheck(w http.ResponseWriter, r *http.Request)

		// (GET /v1/readiness)
		ReadinessCheck(w http.ResponseWriter, r *http.Request)
	}

	MiddlewareFunc func(http.Handler) http.Handler

	ChiServerOptions struct {
		BaseURL          string
		BaseRouter       chi.Router
		Middlewares      []MiddlewareFunc
		ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
	}

	serverInterfaceWrapper struct {
		handler          ServerInterface
		errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
	}
)

// HandlerWithOptions mounts every route of si on the base router. Middlewares
// wrap each route, the first one outermost.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	router := options.BaseRouter
	if router == nil {
		router = chi.NewRouter()
	}

	errorHandlerFunc := options.ErrorHandlerFunc
	if errorHandlerFunc == nil {
		errorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	wrapper := serverInterfaceWrapper{
		handler:          si,
		errorHandlerFunc: errorHandlerFunc,
	}

	router.Group(func(r chi.Router) {
		for _, middleware := range options.Middlewares {
			r.Use(middleware)
		}

		r.Get(options.BaseURL+"/v1/messages", si.GetMessage)
		r.Post(options.BaseURL+"/v1/messages", si.PostMessage)
		r.Get(options.BaseURL+"/v1/queues", si.ListQueues)
		r.Get(options.BaseURL+"/v1/queues/{identifier}/messages", wrapper.getQueueMessage)
		r.Post(options.BaseURL+"/v1/queues/{identifier}/messages", wrapper.postQueueMessage)
		r.Get(options.BaseURL+"/v1/health", si.HealthCheck)
		r.Get(options.BaseURL+"/v1/readiness", si.ReadinessCheck)
	})

	return router
}

func (siw serverInterfaceWrapper) getQueueMessage(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		siw.errorHandlerFunc(w, r, ErrMissingIdentifier)

		return
	}

	siw.handler.GetQueueMessage(w, r, identifier)
}

func (siw serverInterfaceWrapper) postQueueMessage(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		siw.errorHandlerFunc(w, r, ErrMissingIdentifier)

		return
	}

	siw.handler.PostQueueMessage(w, r, identifier)
}
