package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yanqian/edusolve/internal/domain/prompt"
	"github.com/yanqian/edusolve/internal/domain/usage"
	apperrors "github.com/yanqian/edusolve/pkg/errors"
	"github.com/yanqian/edusolve/pkg/metrics"
	"github.com/yanqian/edusolve/pkg/util"
)

// Service analyzes uploaded study documents.
type Service struct {
	cfg        Config
	prompts    prompt.Builder
	llm        Generator
	pdfs       PDFRepository
	extractors Extractors
	blobs      BlobStore
	usage      usage.Tracker
	tokens     metrics.TokenCounter
	now        util.Clock
	logger     *slog.Logger
}

// NewService wires the document Service. blobs may be nil when archiving is disabled.
func NewService(cfg Config, prompts prompt.Builder, llm Generator, pdfs PDFRepository, extractors Extractors, blobs BlobStore, tracker usage.Tracker, tokens metrics.TokenCounter, logger *slog.Logger) *Service {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = ModeSummary
	}
	if tokens == nil {
		tokens = metrics.EstimateCounter{}
	}
	return &Service{
		cfg:        cfg,
		prompts:    prompts,
		llm:        llm,
		pdfs:       pdfs,
		extractors: extractors,
		blobs:      blobs,
		usage:      tracker,
		tokens:     tokens,
		now:        util.NowUTC,
		logger:     logger.With("component", "document.service"),
	}
}

// AnalyzePDF extracts the upload's text, runs the requested analysis and stores the record.
func (s *Service) AnalyzePDF(ctx context.Context, req UploadRequest) (AnalysisResult, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" || len(req.Data) == 0 {
		return AnalysisResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "pdf and user_id are required", nil)
	}
	if err := s.checkSize(req.Data); err != nil {
		return AnalysisResult{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = s.cfg.DefaultMode
	}
	if mode != ModeSummary && mode != ModeStructured {
		return AnalysisResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unknown analysis mode %q", mode), nil)
	}

	text, err := s.extract(s.extractors.PDF, req.Data, "pdf")
	if err != nil {
		return AnalysisResult{}, err
	}

	record := PDFRecord{
		UserID:    userID,
		Filename:  req.Filename,
		Content:   text,
		Mode:      mode,
		ObjectKey: s.archive(ctx, userID, req.Filename, req.Data),
	}

	var tokenUsage metrics.TokenUsage
	result := AnalysisResult{}
	switch mode {
	case ModeSummary:
		summaryPrompt := s.prompts.DocumentSummary(text)
		analysis, err := s.llm.Generate(ctx, summaryPrompt, prompt.SummaryMaxTokens)
		tokenUsage = tokenUsage.Add(s.tokens.Count(summaryPrompt), s.tokens.Count(analysis))
		if err != nil {
			return AnalysisResult{}, err
		}
		record.Analysis = analysis
		result.Analysis = analysis
	case ModeStructured:
		structured, suggestions, used, err := s.structure(ctx, text)
		tokenUsage = tokenUsage.Add(used.PromptTokens, used.CompletionTokens)
		if err != nil {
			return AnalysisResult{}, err
		}
		record.Structured = structured
		record.Suggestions = suggestions
		result.StructuredContent = structured
		result.RealWorldSuggestions = suggestions
	}

	record.Timestamp = s.now()
	id, err := s.pdfs.Insert(ctx, record)
	if err != nil {
		return AnalysisResult{}, apperrors.Wrap(apperrors.CodeStorage, "failed to store pdf analysis", err)
	}
	result.PDFID = id

	if s.usage != nil {
		if err := s.usage.Track(ctx, userID, tokenUsage.TotalTokens); err != nil {
			s.logger.Warn("usage tracking failed", "user_id", userID, "error", err)
		}
	}
	s.logger.Info("pdf analyzed", "user_id", userID, "pdf_id", id, "mode", mode, "chars", len([]rune(text)))
	return result, nil
}

// structure runs the topic list, topic detail and real-world passes.
func (s *Service) structure(ctx context.Context, text string) (StructuredContent, RealWorldSuggestions, metrics.TokenUsage, error) {
	var used metrics.TokenUsage
	call := func(p string, maxTokens int) (string, error) {
		out, err := s.llm.Generate(ctx, p, maxTokens)
		used = used.Add(s.tokens.Count(p), s.tokens.Count(out))
		return out, err
	}

	listOut, err := call(s.prompts.TopicList(text), prompt.TopicListMaxTokens)
	if err != nil {
		return nil, nil, used, err
	}
	var topics []string
	if err := prompt.ParseJSON(listOut, &topics); err != nil {
		return nil, nil, used, apperrors.Wrap(apperrors.CodeMalformedOutput, "topic list is not a JSON array of strings", err)
	}

	structured := StructuredContent{}
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if _, seen := structured[topic]; seen {
			continue
		}
		detailOut, err := call(s.prompts.TopicDetail(topic, text), prompt.TopicDetailMaxTokens)
		if err != nil {
			return nil, nil, used, err
		}
		detail := map[string]any{}
		if err := prompt.ParseJSON(detailOut, &detail); err != nil {
			s.logger.Warn("topic detail unparsable, leaving it empty", "topic", topic, "error", err)
			detail = map[string]any{}
		}
		structured[topic] = detail
	}

	outline, err := json.MarshalIndent(structured, "", "  ")
	if err != nil {
		return nil, nil, used, apperrors.Wrap(apperrors.CodeMalformedOutput, "failed to encode structured outline", err)
	}
	realOut, err := call(s.prompts.RealWorld(string(outline)), prompt.RealWorldMaxTokens)
	if err != nil {
		return nil, nil, used, err
	}
	suggestions := RealWorldSuggestions{}
	if err := prompt.ParseJSON(realOut, &suggestions); err != nil {
		return nil, nil, used, apperrors.Wrap(apperrors.CodeMalformedOutput, "real-world suggestions are not a JSON object", err)
	}
	return structured, suggestions, used, nil
}

// ExtractDOCX returns the plain text of a Word document.
func (s *Service) ExtractDOCX(_ context.Context, filename string, data []byte) (DOCXResult, error) {
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".docx") {
		return DOCXResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "file must be a .docx document", nil)
	}
	if len(data) == 0 {
		return DOCXResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "file is empty", nil)
	}
	if err := s.checkSize(data); err != nil {
		return DOCXResult{}, err
	}
	text, err := s.extract(s.extractors.DOCX, data, "docx")
	if err != nil {
		return DOCXResult{}, err
	}
	return DOCXResult{Content: text}, nil
}

// Suggestions produces real-world suggestions for one topic of a stored PDF.
func (s *Service) Suggestions(ctx context.Context, req SuggestionsRequest) (SuggestionsResponse, error) {
	topic := strings.TrimSpace(req.Topic)
	pdfID := strings.TrimSpace(req.PDFID)
	if topic == "" || pdfID == "" {
		return SuggestionsResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "topic and pdf_id are required", nil)
	}
	record, found, err := s.pdfs.Get(ctx, pdfID)
	if err != nil {
		return SuggestionsResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load pdf", err)
	}
	if !found {
		return SuggestionsResponse{}, apperrors.Wrap(apperrors.CodeNotFound, "PDF not found", nil)
	}

	material := record.Content
	if entry, ok := record.Structured[topic]; ok && len(entry) > 0 {
		if encoded, err := json.Marshal(entry); err == nil {
			material = string(encoded)
		}
	}
	out, err := s.llm.Generate(ctx, s.prompts.TopicSuggestions(topic, material), prompt.RealWorldMaxTokens)
	if err != nil {
		return SuggestionsResponse{}, err
	}
	suggestions := map[string]any{}
	if err := prompt.ParseJSON(out, &suggestions); err != nil {
		return SuggestionsResponse{}, apperrors.Wrap(apperrors.CodeMalformedOutput, "suggestions are not a JSON object", err)
	}
	return SuggestionsResponse{Suggestions: suggestions}, nil
}

func (s *Service) checkSize(data []byte) error {
	if int64(len(data)) > s.cfg.MaxFileBytes {
		return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileBytes), nil)
	}
	return nil
}

func (s *Service) extract(extractor TextExtractor, data []byte, kind string) (string, error) {
	if extractor == nil {
		return "", apperrors.Wrap(apperrors.CodeExtraction, kind+" extraction is not available", nil)
	}
	text, err := extractor.Extract(data)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeExtraction, "failed to extract "+kind+" text", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", apperrors.Wrap(apperrors.CodeExtraction, "no extractable text in "+kind, nil)
	}
	return text, nil
}

// archive stores the raw upload when a blob store is configured. Failures only log.
func (s *Service) archive(ctx context.Context, userID, filename string, data []byte) string {
	if s.blobs == nil {
		return ""
	}
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == ".." || name == "/" || name == "" {
		name = "upload.pdf"
	}
	key := fmt.Sprintf("uploads/%s/%s/%s", keySegment(userID), uuid.NewString(), name)
	stored, err := s.blobs.Put(ctx, key, data, "application/pdf")
	if err != nil {
		s.logger.Warn("archiving upload failed", "user_id", userID, "key", key, "error", err)
		return ""
	}
	return stored
}

// keySegment returns userID when it is a single safe path segment and a stable
// digest of it otherwise, so distinct users never share an archive prefix.
func keySegment(userID string) string {
	safe := userID != "" && userID != "." && userID != ".." &&
		strings.IndexFunc(userID, func(r rune) bool {
			return r == '/' || r == '\\' || r < 0x20 || r == 0x7f
		}) < 0
	if safe {
		return userID
	}
	sum := sha256.Sum256([]byte(userID))
	return "u-" + hex.EncodeToString(sum[:8])
}
