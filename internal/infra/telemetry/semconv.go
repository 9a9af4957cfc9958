package telemetry

import "go.opentelemetry.io/otel/attribute"

// Attribute keys shared by the explorer's instruments.
const (
	AttrEnvironment = attribute.Key("environment")
	AttrOperation   = attribute.Key("operation")
	AttrResult      = attribute.Key("result")
	AttrLanguage    = attribute.Key("language")
	AttrBackend     = attribute.Key("backend")
	AttrServiceKind = attribute.Key("service.kind")
)

// Result values.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultFallback = "fallback"
	ResultSkipped  = "skipped"
)

// OperationResultAttributes labels an operation outcome.
func OperationResultAttributes(operation, result string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEnvironment.String(Environment()),
		AttrOperation.String(operation),
		AttrResult.String(result),
	}
}

// ResultAttributes labels an outcome without an operation name.
func ResultAttributes(result string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEnvironment.String(Environment()),
		AttrResult.String(result),
	}
}
