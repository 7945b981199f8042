package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/talentbase/resumeflow/pkg/core"
)

// minTextLength is the smallest extraction considered usable.
const minTextLength = 10

// TextExtractor pulls raw text out of one binary document format.
type TextExtractor func(path string) (string, error)

// RoleExtractor produces structured roles from raw resume text. The errs
// slice carries non-fatal extractor-reported problems; err is reserved for
// a total failure.
type RoleExtractor interface {
	ExtractRoles(ctx context.Context, text, clientID string) (roles []core.Role, confidence float64, errs []string, err error)
}

// DocumentServer is the document-processing capability: file-type
// classification with text extraction, and LLM-backed structured role
// extraction. Binary formats are handled by injected extractors so the
// engine stays independent of any one parsing library.
type DocumentServer struct {
	roles      RoleExtractor
	extractors map[core.DocumentKind]TextExtractor
}

// NewDocumentServer creates the document capability. Plain text is handled
// natively; pass extractors for PDF, DOCX and DOC to enable those formats.
func NewDocumentServer(roles RoleExtractor, extractors map[core.DocumentKind]TextExtractor) *DocumentServer {
	return &DocumentServer{roles: roles, extractors: extractors}
}

// Name implements gateway.Server.
func (s *DocumentServer) Name() string { return "document_processor" }

// Call implements gateway.Server.
func (s *DocumentServer) Call(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	switch operation {
	case "extract_text":
		return s.extractText(str(params, "file_path"))
	case "extract_roles":
		return s.extractRoles(ctx, str(params, "text"), str(params, "client_id"))
	}
	return nil, fmt.Errorf("document_processor: unknown operation %q", operation)
}

// Classify maps a file extension to a document kind. Classification never
// guesses: anything without a known extension is unknown, a known but
// unhandled extension is unsupported.
func Classify(path string) core.DocumentKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return core.KindPDF
	case ".docx":
		return core.KindDOCX
	case ".doc":
		return core.KindDOC
	case ".txt":
		return core.KindText
	case "":
		return core.KindUnknown
	}
	return core.KindUnsupported
}

func (s *DocumentServer) extractText(path string) (map[string]any, error) {
	kind := Classify(path)
	payload := map[string]any{"kind": string(kind)}

	switch kind {
	case core.KindUnknown:
		payload["error"] = fmt.Sprintf("cannot determine document type of %q", filepath.Base(path))
		payload["status"] = "failure_unknown_type"
		return payload, nil
	case core.KindUnsupported:
		payload["error"] = fmt.Sprintf("unsupported file type %q", strings.ToLower(filepath.Ext(path)))
		payload["status"] = "failure_unsupported_type"
		return payload, nil
	}

	var text string
	var err error
	if kind == core.KindText {
		var raw []byte
		raw, err = os.ReadFile(path)
		text = string(raw)
	} else if extract, ok := s.extractors[kind]; ok {
		text, err = extract(path)
	} else {
		payload["error"] = fmt.Sprintf("no extractor configured for %s documents", kind)
		payload["status"] = "failure_unsupported_type"
		return payload, nil
	}
	if err != nil {
		payload["error"] = fmt.Sprintf("text extraction failed: %v", err)
		payload["status"] = "failure_extraction"
		return payload, nil
	}

	text = strings.TrimSpace(text)
	if len(text) < minTextLength {
		payload["error"] = "insufficient text content extracted"
		payload["status"] = "failure_extraction"
		return payload, nil
	}

	payload["status"] = "success"
	payload["text"] = text
	return payload, nil
}

func (s *DocumentServer) extractRoles(ctx context.Context, text, clientID string) (map[string]any, error) {
	if s.roles == nil {
		return failure("failure_extraction", "no role extractor configured"), nil
	}
	if strings.TrimSpace(text) == "" {
		return failure("failure_extraction", "no text supplied for role extraction"), nil
	}

	roles, confidence, errs, err := s.roles.ExtractRoles(ctx, text, clientID)
	if err != nil {
		return failure("failure_extraction", fmt.Sprintf("role extraction failed: %v", err)), nil
	}

	// Ingress validation: a role missing both company and title carries
	// nothing worth reviewing; everything else is retained even when
	// partially populated.
	kept := make([]core.Role, 0, len(roles))
	for _, role := range roles {
		role.Company = strings.TrimSpace(role.Company)
		role.Title = strings.TrimSpace(role.Title)
		if role.Empty() {
			errs = append(errs, "discarded a role missing both company and title")
			continue
		}
		role.RoleIndex = len(kept)
		kept = append(kept, role)
	}

	return map[string]any{
		"status":     "success",
		"roles":      kept,
		"confidence": confidence,
		"errors":     errs,
	}, nil
}
