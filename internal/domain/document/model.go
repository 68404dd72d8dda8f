package document

import (
	"context"
	"time"
)

// Mode selects how an uploaded PDF is analyzed.
type Mode string

const (
	ModeSummary    Mode = "summary"
	ModeStructured Mode = "structured"
)

// DefaultMaxFileBytes bounds uploads when no limit is configured.
const DefaultMaxFileBytes = 20 << 20

// Config controls upload analysis.
type Config struct {
	MaxFileBytes int64
	DefaultMode  Mode
}

// StructuredContent maps a topic name to the model's breakdown of it.
// Entries are whatever JSON the model returned; only parse success is checked.
type StructuredContent map[string]map[string]any

// RealWorldSuggestions maps a topic to problems, applications, a case study and projects.
type RealWorldSuggestions map[string]any

// PDFRecord is an analyzed upload. Records are never updated after insert.
type PDFRecord struct {
	ID          string
	UserID      string
	Filename    string
	Content     string
	Analysis    string
	Structured  StructuredContent
	Suggestions RealWorldSuggestions
	ObjectKey   string
	Mode        Mode
	Timestamp   time.Time
}

// PDFRepository stores analyzed uploads.
type PDFRepository interface {
	Insert(ctx context.Context, record PDFRecord) (string, error)
	Get(ctx context.Context, id string) (PDFRecord, bool, error)
}

// TextExtractor pulls plain text out of a document.
type TextExtractor interface {
	Extract(data []byte) (string, error)
}

// Extractors groups the per-format extractors.
type Extractors struct {
	PDF  TextExtractor
	DOCX TextExtractor
}

// BlobStore archives raw uploads and returns the object key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Generator runs one prompt through the inference service.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// UploadRequest carries a PDF upload.
type UploadRequest struct {
	UserID   string
	Filename string
	Data     []byte
	Mode     Mode
}

// AnalysisResult is returned for a PDF upload. Summary mode fills Analysis,
// structured mode fills the two structured fields.
type AnalysisResult struct {
	Analysis             string               `json:"analysis,omitempty"`
	StructuredContent    StructuredContent    `json:"structured_content,omitempty"`
	RealWorldSuggestions RealWorldSuggestions `json:"real_world_suggestions,omitempty"`
	PDFID                string               `json:"pdf_id"`
}

// DOCXResult carries extracted Word text.
type DOCXResult struct {
	Content string `json:"content"`
}

// SuggestionsRequest asks for real-world suggestions on a topic of a stored PDF.
type SuggestionsRequest struct {
	Topic string `json:"topic"`
	PDFID string `json:"pdf_id"`
}

// SuggestionsResponse wraps the parsed suggestion object.
type SuggestionsResponse struct {
	Suggestions map[string]any `json:"suggestions"`
}
