package infrastructure

import (
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

const (
	httpMethodKey      = "http.method"
	httpPathKey        = "http.path"
	httpStatusCodeKey  = "http.status_code"
	queueIdentifierKey = "queue.identifier"
	operationKey       = "queue.operation"
	outcomeKey         = "outcome"
)

func HTTPMethodAttr(method string) attribute.KeyValue {
	return attribute.String(httpMethodKey, method)
}

func HTTPPathAttr(path string) attribute.KeyValue {
	return attribute.String(httpPathKey, path)
}

func HTTPStatusCodeAttr(code int) attribute.KeyValue {
	return attribute.String(httpStatusCodeKey, strconv.Itoa(code))
}

func QueueIdentifierAttr(identifier string) attribute.KeyValue {
	return attribute.String(queueIdentifierKey, identifier)
}

func OperationAttr(operation string) attribute.KeyValue {
	return attribute.String(operationKey, operation)
}

func OutcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String(outcomeKey, outcome)
}
