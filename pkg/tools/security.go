package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/talentbase/resumeflow/pkg/core"
	"github.com/talentbase/resumeflow/pkg/security"
)

// SecurityServer is the validation capability every other invocation is
// pre-checked through. It enforces the server allow-list, path parameter
// checks against a base directory, and the per-process rate limit.
type SecurityServer struct {
	baseDir string
	limiter *security.RateLimiter
}

// NewSecurityServer creates the validation capability. baseDir is the
// directory all path-valued parameters must resolve into; empty disables
// the containment check. rateLimit caps invocations per process.
func NewSecurityServer(baseDir string, rateLimit int) *SecurityServer {
	return &SecurityServer{
		baseDir: baseDir,
		limiter: security.NewRateLimiter(rateLimit),
	}
}

// Name implements gateway.Server.
func (s *SecurityServer) Name() string { return "security_gateway" }

// Call implements gateway.Server. The only operation is "validate", taking
// target_server, method, and the params destined for the target.
func (s *SecurityServer) Call(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	if operation != "validate" {
		return nil, fmt.Errorf("security_gateway: unknown operation %q", operation)
	}
	if err := s.limiter.Take(); err != nil {
		// Exceeding the limit is fatal for the invocation; no backoff.
		return nil, err
	}

	target := str(params, "target_server")
	if err := security.ValidateServer(target); err != nil {
		return failure("failure_security_validation",
			fmt.Sprintf("server %q is not allowed", target)), nil
	}

	forwarded, _ := params["params"].(map[string]any)
	if err := security.ValidateParams(forwarded, s.baseDir); err != nil {
		msg := "parameter validation failed"
		switch {
		case errors.Is(err, core.ErrPathTraversal):
			msg = "path parameter contains a traversal sequence"
		case errors.Is(err, core.ErrPathOutsideBase):
			msg = "path parameter resolves outside the allowed directory"
		case errors.Is(err, core.ErrUnsafeParam):
			msg = "parameter contains invalid characters or is too large"
		}
		return failure("failure_security_validation", msg), nil
	}

	return map[string]any{"status": "success"}, nil
}

// Invocations reports how many validations the rate limiter has counted.
func (s *SecurityServer) Invocations() int {
	return s.limiter.Count()
}
