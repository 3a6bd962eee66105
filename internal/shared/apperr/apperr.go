// Package apperr defines the failure kinds shared by the repository and service layers.
//
// Every error carries the operation that failed, the layer that raised it, a creation
// timestamp and optional structured context for logs. Callers dispatch on the kind with
// errors.Is against the package sentinels, never on the message text.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind classifies a failure.
type Kind uint8

const (
	// KindTransport covers storage or network failures. It is the zero value so that
	// unclassified causes are treated as transport problems.
	KindTransport Kind = iota
	KindNotFound
	KindValidation
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	default:
		return "transport"
	}
}

// Layer names the layer that raised an Error.
type Layer string

const (
	LayerRepository Layer = "repository"
	LayerService    Layer = "service"
	LayerStorage    Layer = "storage"
	LayerWebhook    Layer = "webhook"
)

var (
	ErrTransport     = errors.New("transport error")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindConfiguration:
		return ErrConfiguration
	default:
		return ErrTransport
	}
}

// Error is a classified failure raised by one layer for one operation.
type Error struct {
	Kind    Kind
	Layer   Layer
	Op      string
	Message string
	Time    time.Time
	Context map[string]any
	Err     error
}

// New builds an Error without an underlying cause.
func New(kind Kind, layer Layer, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Layer:   layer,
		Op:      op,
		Message: message,
		Time:    time.Now().UTC(),
	}
}

// Wrap re-raises err in the given layer under op. The kind of a classified cause is kept;
// unclassified causes become transport errors.
func Wrap(layer Layer, op string, err error) *Error {
	if err == nil {
		return nil
	}
	e := New(KindOf(err), layer, op, messageOf(err))
	e.Err = err
	return e
}

// WrapKind re-raises err with an explicit kind.
func WrapKind(kind Kind, layer Layer, op string, err error) *Error {
	if err == nil {
		return nil
	}
	e := New(kind, layer, op, messageOf(err))
	e.Err = err
	return e
}

// NotFound reports an absent record for op.
func NotFound(layer Layer, op, message string) *Error {
	return New(KindNotFound, layer, op, message)
}

// Validation reports rejected input for op.
func Validation(layer Layer, op, message string) *Error {
	return New(KindValidation, layer, op, message)
}

// Configuration reports a missing or invalid setting for op.
func Configuration(layer Layer, op, message string) *Error {
	return New(KindConfiguration, layer, op, message)
}

// With attaches a context field and returns the same error.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Name is the operation-qualified error name, e.g. GetJobByIDError.
func (e *Error) Name() string {
	if e.Op == "" {
		return "Error"
	}
	return e.Op + "Error"
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// LogLine renders the causal detail as a single line, context fields in key order.
func (e *Error) LogLine() string {
	var b strings.Builder
	b.WriteString(e.Name())
	b.WriteString(" [")
	b.WriteString(string(e.Layer))
	b.WriteString("/")
	b.WriteString(e.Kind.String())
	b.WriteString("] ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(" cause=")
		b.WriteString(fmt.Sprintf("%q", e.Err.Error()))
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Context[k])
	}
	return b.String()
}

// Fields returns the structured log context for the error.
func (e *Error) Fields() map[string]any {
	fields := make(map[string]any, len(e.Context)+5)
	for k, v := range e.Context {
		fields[k] = v
	}
	fields["error_name"] = e.Name()
	fields["error_kind"] = e.Kind.String()
	fields["layer"] = string(e.Layer)
	fields["error_time"] = e.Time.Format(time.RFC3339Nano)
	if e.Err != nil {
		fields["cause"] = e.Err.Error()
	} else {
		fields["cause"] = e.Message
	}
	return fields
}

// KindOf returns the kind of the outermost classified error in err's chain. Unclassified
// errors are transport errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func messageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
