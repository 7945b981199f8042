package tools

import (
	"context"
	"fmt"

	"github.com/talentbase/resumeflow/pkg/core"
)

// RoleStore is the slice of the record store the capability needs.
type RoleStore interface {
	QueryRoles(ctx context.Context, clientID string) ([]core.Role, error)
	CreateRole(ctx context.Context, role core.Role, clientID string) (string, error)
}

// RecordStoreServer exposes the record store as a capability: querying a
// client's accepted roles and creating new ones.
type RecordStoreServer struct {
	store RoleStore
}

// NewRecordStoreServer wraps a role store.
func NewRecordStoreServer(store RoleStore) *RecordStoreServer {
	return &RecordStoreServer{store: store}
}

// Name implements gateway.Server.
func (s *RecordStoreServer) Name() string { return "record_store" }

// Call implements gateway.Server.
func (s *RecordStoreServer) Call(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	switch operation {
	case "query_roles":
		roles, err := s.store.QueryRoles(ctx, str(params, "client_id"))
		if err != nil {
			return failure("failure_store_query", fmt.Sprintf("query roles: %v", err)), nil
		}
		return map[string]any{"status": "success", "roles": roles}, nil

	case "create_role":
		role, ok := params["role"].(core.Role)
		if !ok {
			return failure("failure_store_create", "create_role requires a role parameter"), nil
		}
		id, err := s.store.CreateRole(ctx, role, str(params, "client_id"))
		if err != nil {
			return failure("failure_store_create", fmt.Sprintf("create role: %v", err)), nil
		}
		return map[string]any{"status": "success", "store_id": id}, nil
	}
	return nil, fmt.Errorf("record_store: unknown operation %q", operation)
}
