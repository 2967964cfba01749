// Package observability defines the logger handed through the pipeline.
package observability

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is one structured key/value pair attached to a log entry.
type Field interface {
	Key() string
	Value() interface{}
}

// kv backs every constructor below; loggers only ever read a field through
// Key and Value, so one concrete type serves all value kinds.
type kv struct {
	key string
	val interface{}
}

func (f kv) Key() string        { return f.key }
func (f kv) Value() interface{} { return f.val }

func String(key, value string) Field      { return kv{key, value} }
func Int(key string, value int) Field     { return kv{key, value} }
func Int64(key string, value int64) Field { return kv{key, value} }
func Bool(key string, value bool) Field   { return kv{key, value} }

// Error attaches err under key; a nil error is logged as an empty string.
func Error(key string, err error) Field {
	if err == nil {
		return kv{key, ""}
	}
	return kv{key, err}
}

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }
