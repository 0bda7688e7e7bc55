package errmodel

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
)

// Category values for compact errors.
const (
	CategoryConfiguration = "configuration"
	CategoryConnection    = "connection"
	CategoryProtocol      = "protocol"
	CategoryReasoning     = "reasoning"
	CategoryTool          = "tool"
	CategoryValidation    = "validation"
	CategorySystem        = "system"
)

// Error is the compact error payload returned by APIs and used internally.
// It implements the error interface.
type Error struct {
	Category string         `json:"category"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Context  map[string]any `json:"context,omitempty"`
	Causes   []Error        `json:"causes,omitempty"`

	// cause is appended to Error() and unwrapped; orig is only unwrapped.
	cause error
	orig  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	if e.Code != "" {
		return e.Code + ": " + msg
	}
	return msg
}

// Unwrap exposes the first cause so callers can match sentinel errors
// such as context.DeadlineExceeded.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.cause != nil {
		return e.cause
	}
	return e.orig
}

// New constructs a new compact error.
func New(category, code, message string, ctx map[string]any, causes ...error) *Error {
	ce := &Error{Category: category, Code: code, Message: Truncate(message, maxMessage)}
	if len(ctx) > 0 {
		ce.Context = truncateContext(ctx)
	}
	for _, c := range causes {
		if c == nil {
			continue
		}
		if ce.cause == nil {
			ce.cause = c
		}
		ce.Causes = append(ce.Causes, *From(c))
	}
	return ce
}

// From converts any error into a compact Error. If err is already *Error, it's returned as-is.
func From(err error) *Error {
	var ce *Error
	if err == nil {
		return nil
	}
	if errors.As(err, &ce) {
		return ce
	}
	// Default to system/internal for unknown error types.
	return &Error{Category: CategorySystem, Code: "internal", Message: Truncate(err.Error(), maxMessage), orig: err}
}

// Convenience constructors.
func Configuration(code, message string, ctx map[string]any) *Error {
	return New(CategoryConfiguration, code, message, ctx)
}

func Validation(code, message string, ctx map[string]any) *Error {
	return New(CategoryValidation, code, message, ctx)
}

func Connection(code, message string, ctx map[string]any, cause error) *Error {
	return New(CategoryConnection, code, message, ctx, cause)
}

func Protocol(code, message string, ctx map[string]any, cause error) *Error {
	return New(CategoryProtocol, code, message, ctx, cause)
}

func Reasoning(code, message string, ctx map[string]any, cause error) *Error {
	return New(CategoryReasoning, code, message, ctx, cause)
}

func Tool(code, message string, ctx map[string]any, cause error) *Error {
	return New(CategoryTool, code, message, ctx, cause)
}

func System(code, message string, ctx map[string]any, cause error) *Error {
	return New(CategorySystem, code, message, ctx, cause)
}

// HTTPStatus maps category/code to HTTP status.
func HTTPStatus(e *Error) int {
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.Category {
	case CategoryValidation:
		switch e.Code {
		case "not_found":
			return http.StatusNotFound
		case "method_not_allowed":
			return http.StatusMethodNotAllowed
		default:
			return http.StatusBadRequest
		}
	case CategoryConnection:
		if e.Code == "timeout" {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case CategoryProtocol, CategoryTool, CategoryReasoning:
		return http.StatusBadGateway
	case CategoryConfiguration, CategorySystem:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Envelope is the JSON body of every REST error response.
type Envelope struct {
	Error   *Error `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// WriteHTTP writes err as an Envelope with the status from HTTPStatus. The
// trace id of the request span is included when one is recording.
func WriteHTTP(w http.ResponseWriter, r *http.Request, err error) {
	env := Envelope{Error: From(err)}
	if env.Error == nil {
		env.Error = &Error{Category: CategorySystem, Code: "internal", Message: "unknown error"}
	}
	if r != nil {
		if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
			env.TraceID = sc.TraceID().String()
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(env.Error))
	_ = json.NewEncoder(w).Encode(env)
}

// Prose renders err as the single line returned to callers of an operation:
// "Error querying <provider>: <detail>".
func Prose(provider string, err error) string {
	if err == nil {
		return ""
	}
	return "Error querying " + provider + ": " + err.Error()
}

const (
	maxMessage      = 512
	maxContextValue = 256
)

// Truncate trims s to at most max bytes, marking the cut with "...".
// The cut never splits a UTF-8 sequence.
func Truncate(s string, max int) string {
	switch {
	case max <= 0 || len(s) <= max:
		return s
	case max <= 3:
		return s[:runeCut(s, max)]
	}
	return s[:runeCut(s, max-3)] + "..."
}

// runeCut backs n up to the start of the rune that straddles it.
func runeCut(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

// truncateContext flattens non-string values to JSON and bounds every value.
func truncateContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		if str, ok := v.(string); ok {
			out[k] = Truncate(str, maxContextValue)
			continue
		}
		b, err := json.Marshal(v)
		if err != nil || len(b) == 0 {
			out[k] = v
			continue
		}
		out[k] = Truncate(string(b), maxContextValue)
	}
	return out
}

// IsCategory checks if err belongs to a specific category.
func IsCategory(err error, category string) bool {
	ce := From(err)
	return ce != nil && strings.EqualFold(ce.Category, category)
}

// CategoryOf returns the category of err, or "" for nil.
func CategoryOf(err error) string {
	ce := From(err)
	if ce == nil {
		return ""
	}
	return ce.Category
}
