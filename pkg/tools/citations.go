package tools

import (
	"context"
	"fmt"

	"github.com/talentbase/resumeflow/pkg/core"
)

// CitationStore is the slice of persistence the citation capability needs.
type CitationStore interface {
	SaveCitation(ctx context.Context, cit core.Citation) (string, error)
}

// CitationServer records provenance for persisted facts: which source
// location a piece of text came from and which stored field it landed in.
type CitationServer struct {
	store CitationStore
}

// NewCitationServer wraps a citation store.
func NewCitationServer(store CitationStore) *CitationServer {
	return &CitationServer{store: store}
}

// Name implements gateway.Server.
func (s *CitationServer) Name() string { return "citation_tracker" }

// Call implements gateway.Server. The only operation is "record_citation".
func (s *CitationServer) Call(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	if operation != "record_citation" {
		return nil, fmt.Errorf("citation_tracker: unknown operation %q", operation)
	}

	cit := core.Citation{
		DocumentID: str(params, "doc_id"),
		Text:       str(params, "text"),
		Location:   str(params, "location"),
		StoreID:    str(params, "store_id"),
		Field:      str(params, "field"),
	}
	if cit.DocumentID == "" || cit.Text == "" {
		return failure("failure_citation", "record_citation requires doc_id and text"), nil
	}

	id, err := s.store.SaveCitation(ctx, cit)
	if err != nil {
		return failure("failure_citation", fmt.Sprintf("record citation: %v", err)), nil
	}
	return map[string]any{"status": "success", "citation_id": id}, nil
}
