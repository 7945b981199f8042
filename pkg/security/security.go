// Package security provides validation, sanitization, and limits for the
// resumeflow packages. Every tool invocation passes through these checks
// before reaching a capability.
package security

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/talentbase/resumeflow/pkg/core"
)

// Security limits and configuration
const (
	// MaxErrorMessageLength is the maximum length for stored error messages
	MaxErrorMessageLength = 4096

	// DefaultRateLimit is the per-process cap on tool invocations.
	DefaultRateLimit = 10000

	// MaxTextParamSize is the maximum size in bytes for text-valued
	// parameters (1MB), matching the largest resume we accept.
	MaxTextParamSize = 1 << 20
)

// AllowedServers is the fixed allow-list of invocable capability servers.
var AllowedServers = map[string]bool{
	"security_gateway":   true,
	"document_processor": true,
	"record_store":       true,
	"citation_tracker":   true,
}

// pathParamKeys are the parameter names treated as path-valued.
var pathParamKeys = map[string]bool{
	"path":          true,
	"file_path":     true,
	"source_path":   true,
	"document_path": true,
}

// safeParam matches word characters, path separators, dots and spaces.
var safeParam = regexp.MustCompile(`^[\w\-/\\. ]+$`)

// ValidateServer checks the target against the allow-list.
func ValidateServer(name string) error {
	if !AllowedServers[name] {
		return core.ErrServerNotAllowed
	}
	return nil
}

// ValidateParams rejects path-valued parameters that contain traversal
// sequences, unsafe characters, or resolve outside baseDir. A non-path
// string parameter is only checked for size. An empty baseDir skips the
// containment check.
func ValidateParams(params map[string]any, baseDir string) error {
	for key, value := range params {
		s, ok := value.(string)
		if !ok {
			continue
		}
		if len(s) > MaxTextParamSize {
			return core.ErrUnsafeParam
		}
		if !pathParamKeys[key] {
			continue
		}
		if err := ValidatePath(s, baseDir); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePath checks a single path-valued parameter.
func ValidatePath(path, baseDir string) error {
	if strings.Contains(path, "..") {
		return core.ErrPathTraversal
	}
	if path == "" || !safeParam.MatchString(path) {
		return core.ErrUnsafeParam
	}
	if baseDir == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return core.ErrUnsafeParam
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return core.ErrUnsafeParam
	}
	rel, err := filepath.Rel(absBase, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return core.ErrPathOutsideBase
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	// Truncate if too long
	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// RateLimiter is a simple per-process invocation counter. It never backs
// off; once the limit is exceeded every further Take fails.
type RateLimiter struct {
	mu    sync.Mutex
	limit int
	count int
}

// NewRateLimiter creates a limiter with the given cap. A non-positive cap
// falls back to DefaultRateLimit.
func NewRateLimiter(limit int) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	return &RateLimiter{limit: limit}
}

// Take consumes one invocation slot.
func (l *RateLimiter) Take() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count >= l.limit {
		return core.ErrRateLimited
	}
	l.count++
	return nil
}

// Count returns the number of invocations taken so far.
func (l *RateLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
