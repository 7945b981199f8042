// Package gateway wraps every call to an external capability with a uniform
// validate-then-call contract and uniform error normalization. The gateway
// itself does not retry, cache, or rate-limit; rate limiting lives in the
// security capability's own counter.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// SecurityServerName is the capability that performs pre-call validation.
// Calls targeting it skip the pre-check to avoid recursion.
const SecurityServerName = "security_gateway"

// Server is one capability reachable through the gateway. Implementations
// return a structured payload on success, or a payload carrying an "error"
// field (and a "status" beginning "failure") for business-level errors.
type Server interface {
	Name() string
	Call(ctx context.Context, operation string, params map[string]any) (map[string]any, error)
}

// Gateway dispatches tool invocations to registered capability servers.
type Gateway struct {
	mu      sync.RWMutex
	servers map[string]Server
	logger  *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// New creates a gateway with the given capability servers registered.
func New(servers []Server, opts ...Option) *Gateway {
	g := &Gateway{
		servers: make(map[string]Server, len(servers)),
		logger:  slog.Default(),
	}
	for _, s := range servers {
		g.servers[s.Name()] = s
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds or replaces a capability server.
func (g *Gateway) Register(s Server) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.servers[s.Name()] = s
}

// Invoke performs one tool invocation: a validation pre-check through the
// security capability (unless the call targets it), then the target call.
// Failures are normalized into the Result union; Invoke never returns an
// error to the caller.
func (g *Gateway) Invoke(ctx context.Context, server, operation string, params map[string]any) Result {
	if server != SecurityServerName {
		if res := g.validate(ctx, server, operation, params); !res.OK {
			return res
		}
	}

	g.mu.RLock()
	target, ok := g.servers[server]
	g.mu.RUnlock()
	if !ok {
		return Failure(InvocationFailed, fmt.Sprintf("no server registered for %q", server))
	}

	payload, err := target.Call(ctx, operation, params)
	if err != nil {
		g.logger.Error("tool invocation failed",
			"server", server, "operation", operation, "error", err)
		return Failure(InvocationFailed, fmt.Sprintf("%s.%s: %v", server, operation, err))
	}
	if msg, failed := targetFailure(payload); failed {
		g.logger.Warn("tool reported error",
			"server", server, "operation", operation, "error", msg)
		return Result{Kind: TargetError, Message: msg, Payload: payload}
	}
	return Success(payload)
}

// validate runs the pre-check against the security capability. The same
// allow-list and path checks the security server applies to forwarded
// params are applied here before any target is reached.
func (g *Gateway) validate(ctx context.Context, server, operation string, params map[string]any) Result {
	g.mu.RLock()
	sec, ok := g.servers[SecurityServerName]
	g.mu.RUnlock()
	if !ok {
		return Failure(ValidationFailed, "security capability not registered")
	}

	payload, err := sec.Call(ctx, "validate", map[string]any{
		"target_server": server,
		"method":        operation,
		"params":        params,
	})
	if err != nil {
		return Failure(ValidationFailed, fmt.Sprintf("security pre-check: %v", err))
	}
	if msg, failed := targetFailure(payload); failed {
		return Failure(ValidationFailed, msg)
	}
	return Success(payload)
}

// targetFailure inspects a capability payload for the error conventions all
// servers follow: a non-empty "error" field, or a "status" discriminator
// beginning with "failure".
func targetFailure(payload map[string]any) (string, bool) {
	if payload == nil {
		return "empty response from capability", true
	}
	status, _ := payload["status"].(string)
	errMsg, _ := payload["error"].(string)
	if errMsg == "" && !strings.HasPrefix(status, "failure") {
		return "", false
	}
	if errMsg == "" {
		errMsg = "capability reported " + status
	}
	return errMsg, true
}
