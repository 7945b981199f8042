package gateway

// FailureKind distinguishes why an invocation produced no usable payload.
type FailureKind string

const (
	// ValidationFailed means the pre-check rejected the call; the target
	// was never invoked.
	ValidationFailed FailureKind = "validation_failed"
	// InvocationFailed means transport or dispatch to the target failed.
	InvocationFailed FailureKind = "invocation_failed"
	// TargetError means the target ran but reported a business failure.
	TargetError FailureKind = "target_error"
)

// Result is the tagged outcome of one tool invocation. Either OK is true
// and Payload holds the response fields, or Kind and Message describe the
// failure.
type Result struct {
	OK      bool
	Kind    FailureKind
	Message string
	Payload map[string]any
}

// Success wraps a target payload.
func Success(payload map[string]any) Result {
	return Result{OK: true, Payload: payload}
}

// Failure builds a normalized failure Result.
func Failure(kind FailureKind, message string) Result {
	return Result{Kind: kind, Message: message}
}

// Str returns a string payload field, or "" when absent or mistyped.
func (r Result) Str(key string) string {
	s, _ := r.Payload[key].(string)
	return s
}

// Float returns a numeric payload field.
func (r Result) Float(key string) (float64, bool) {
	switch v := r.Payload[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
