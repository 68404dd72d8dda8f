package http

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/edusolve/internal/domain/assistant"
	"github.com/yanqian/edusolve/internal/domain/auth"
	"github.com/yanqian/edusolve/internal/domain/document"
	"github.com/yanqian/edusolve/internal/domain/usage"
	"github.com/yanqian/edusolve/internal/infra/config"
)

// ChatService is the chat surface the handlers depend on.
type ChatService interface {
	Generate(ctx context.Context, req assistant.GenerateRequest) (assistant.GenerateResponse, error)
	AnalyzeSelection(ctx context.Context, req assistant.SelectionRequest) (assistant.SelectionResponse, error)
	History(ctx context.Context, sessionID, owner string) ([]assistant.Turn, error)
	Sessions(ctx context.Context, owner string) ([]assistant.SessionSummary, error)
}

// DocumentService is the upload surface the handlers depend on.
type DocumentService interface {
	AnalyzePDF(ctx context.Context, req document.UploadRequest) (document.AnalysisResult, error)
	ExtractDOCX(ctx context.Context, filename string, data []byte) (document.DOCXResult, error)
	Suggestions(ctx context.Context, req document.SuggestionsRequest) (document.SuggestionsResponse, error)
}

// UsageService reads per-user counters.
type UsageService interface {
	Lookup(ctx context.Context, userID string) (usage.Record, error)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	chat            ChatService
	docs            DocumentService
	usage           UsageService
	auth            auth.Service
	requireIdentity bool
	maxUploadBytes  int64
	cookie          sessionCookie
	logger          *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, chat ChatService, docs DocumentService, usageSvc UsageService, authSvc auth.Service, logger *slog.Logger) *Handler {
	return &Handler{
		chat:            chat,
		docs:            docs,
		usage:           usageSvc,
		auth:            authSvc,
		requireIdentity: cfg.Auth.RequireIdentity,
		maxUploadBytes:  cfg.Document.MaxFileBytes,
		cookie: sessionCookie{
			name:   cfg.Auth.CookieName,
			ttl:    cfg.Auth.SessionTTL,
			secure: cfg.Auth.CookieSecure,
		},
		logger: logger.With("component", "http.handler"),
	}
}

// userID picks the caller identity. Verified identities win when they are required
// and fill in a missing user_id otherwise.
func (h *Handler) userID(c *gin.Context, supplied string) string {
	supplied = strings.TrimSpace(supplied)
	if who, ok := identity(c); ok && (h.requireIdentity || supplied == "") {
		return who
	}
	return supplied
}

// owner is the identity that session access is scoped to, or "" when identity is optional.
func (h *Handler) owner(c *gin.Context) string {
	if !h.requireIdentity {
		return ""
	}
	who, _ := identity(c)
	return who
}

// Generate answers a chat prompt.
func (h *Handler) Generate(c *gin.Context) {
	var req assistant.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	req.UserID = h.userID(c, req.UserID)
	req.Owner = h.owner(c)
	if strings.TrimSpace(req.Prompt) == "" || req.UserID == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "prompt and user_id are required", nil))
		return
	}

	resp, err := h.chat.Generate(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UploadPDF analyzes an uploaded PDF.
func (h *Handler) UploadPDF(c *gin.Context) {
	fileHeader, err := c.FormFile("pdf")
	userID := h.userID(c, c.PostForm("user_id"))
	if err != nil || userID == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "pdf file and user_id are required", err))
		return
	}
	data, httpErr := h.readUpload(fileHeader)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	resp, err := h.docs.AnalyzePDF(c.Request.Context(), document.UploadRequest{
		UserID:   userID,
		Filename: fileHeader.Filename,
		Data:     data,
		Mode:     document.Mode(strings.ToLower(strings.TrimSpace(c.PostForm("mode")))),
	})
	if err != nil {
		abortWithError(c, fromDomainError(err, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UploadDOCX returns the text of a Word document.
func (h *Handler) UploadDOCX(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "file is required", err))
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".docx") {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "file must be a .docx document", nil))
		return
	}
	data, httpErr := h.readUpload(fileHeader)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	resp, err := h.docs.ExtractDOCX(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		abortWithError(c, fromDomainError(err, http.StatusUnprocessableEntity))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) readUpload(fileHeader *multipart.FileHeader) ([]byte, *HTTPError) {
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		return nil, NewHTTPError(http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read upload", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "upload_failed", "failed to read file", err)
	}
	return data, nil
}

// AnalyzeSelection answers a question about highlighted text.
func (h *Handler) AnalyzeSelection(c *gin.Context) {
	var req assistant.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.chat.AnalyzeSelection(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History returns the turns of one session.
func (h *Handler) History(c *gin.Context) {
	turns, err := h.chat.History(c.Request.Context(), c.Param("session_id"), h.owner(c))
	if err != nil {
		abortWithError(c, fromDomainError(err, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": turns})
}

// Sessions lists chat sessions. With mandatory identity only the caller's sessions are listed.
func (h *Handler) Sessions(c *gin.Context) {
	owner := strings.TrimSpace(c.Query("user_id"))
	if who := h.owner(c); who != "" {
		owner = who
	}
	sessions, err := h.chat.Sessions(c.Request.Context(), owner)
	if err != nil {
		abortWithError(c, fromDomainError(err, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Suggestions produces real-world suggestions for a topic of a stored PDF.
func (h *Handler) Suggestions(c *gin.Context) {
	var req document.SuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.docs.Suggestions(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Usage reports the request counter of a user.
func (h *Handler) Usage(c *gin.Context) {
	userID := h.userID(c, c.Param("user_id"))
	record, err := h.usage.Lookup(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, fromDomainError(err, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, record)
}

// Health is the liveness check.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
