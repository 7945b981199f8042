package core

import "time"

// Citation records provenance for one persisted fact: where the text came
// from in the source document and which stored field it landed in.
type Citation struct {
	CitationID string    `json:"citation_id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"original_extracted_text"`
	Location   string    `json:"document_location"`
	StoreID    string    `json:"store_id"`
	Field      string    `json:"field"`
	RecordedAt time.Time `json:"recorded_at"`
}
