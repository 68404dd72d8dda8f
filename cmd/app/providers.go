package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/edusolve/internal/bootstrap"
	"github.com/yanqian/edusolve/internal/domain/assistant"
	"github.com/yanqian/edusolve/internal/domain/auth"
	"github.com/yanqian/edusolve/internal/domain/document"
	"github.com/yanqian/edusolve/internal/domain/inference"
	"github.com/yanqian/edusolve/internal/domain/prompt"
	"github.com/yanqian/edusolve/internal/domain/usage"
	"github.com/yanqian/edusolve/internal/infra/blobstore"
	"github.com/yanqian/edusolve/internal/infra/config"
	"github.com/yanqian/edusolve/internal/infra/docstore"
	"github.com/yanqian/edusolve/internal/infra/extract"
	"github.com/yanqian/edusolve/internal/infra/identity/firebase"
	"github.com/yanqian/edusolve/internal/infra/identity/local"
	"github.com/yanqian/edusolve/internal/infra/llm"
	"github.com/yanqian/edusolve/internal/infra/llm/chatapi"
	"github.com/yanqian/edusolve/internal/infra/llm/genai"
	"github.com/yanqian/edusolve/internal/infra/userrepo"
	"github.com/yanqian/edusolve/internal/infra/websession"
	"github.com/yanqian/edusolve/pkg/metrics"
)

func provideInferenceClient(cfg *config.Config, logger *slog.Logger) (inference.Client, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGenAI:
		key := cfg.LLM.GoogleAPIKey
		if key == "" {
			key = cfg.LLM.APIKey
		}
		if strings.TrimSpace(key) == "" {
			logger.Warn("GOOGLE_API_KEY not set, using echo inference client")
			return llm.EchoClient{}, nil
		}
		logger.Info("generative api client enabled", "model", cfg.LLM.Model)
		return genai.NewClient(key, cfg.LLM.BaseURL, cfg.LLM.Model)
	case config.ProviderEcho:
		return llm.EchoClient{}, nil
	default:
		if strings.TrimSpace(cfg.LLM.APIKey) == "" {
			logger.Warn("HFE_API_TOKEN not set, using echo inference client")
			return llm.EchoClient{}, nil
		}
		client, err := chatapi.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
		if err != nil {
			return nil, err
		}
		logger.Info("chat completion client enabled", "model", cfg.LLM.Model)
		return chatapi.NewAdapter(client, cfg.LLM.Model), nil
	}
}

func provideInferenceConfig(cfg *config.Config) inference.Config {
	return inference.Config{
		Stream:          cfg.LLM.Stream,
		Temperature:     cfg.LLM.Temperature,
		TopP:            cfg.LLM.TopP,
		StreamCharLimit: cfg.LLM.StreamCharLimit,
	}
}

func providePromptBuilder(cfg *config.Config) prompt.Builder {
	return prompt.NewBuilder(cfg.Assistant.ContentLimit)
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) metrics.TokenCounter {
	counter := metrics.NewTiktokenCounter(cfg.LLM.TokenEncoding, logger)
	// Load the ranks while the server starts so the first request does not pay for the download.
	go counter.Warm()
	return counter
}

// docStores groups the document-database repositories so they share one client.
type docStores struct {
	usage    usage.Repository
	sessions assistant.SessionRepository
	pdfs     document.PDFRepository
}

func provideDocStores(cfg *config.Config, res *bootstrap.Resources, logger *slog.Logger) docStores {
	fallback := docStores{
		usage:    docstore.NewMemoryUsageRepository(),
		sessions: docstore.NewMemorySessionRepository(),
		pdfs:     docstore.NewMemoryPDFRepository(),
	}
	uri := strings.TrimSpace(cfg.Mongo.URI)
	if uri == "" {
		logger.Info("MONGODB_URI not set, using memory document stores")
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := docstore.Connect(ctx, docstore.MongoConfig{URI: uri, Database: cfg.Mongo.Database, Timeout: cfg.Mongo.Timeout})
	if err != nil {
		logger.Error("mongo connection failed, using memory document stores", "error", err)
		return fallback
	}
	res.Add("mongo", client.Disconnect)

	db := client.Database(cfg.Mongo.Database)
	sessions := docstore.NewMongoSessionRepository(db)
	if err := sessions.EnsureIndexes(ctx); err != nil {
		logger.Warn("mongo session indexes not created", "error", err)
	}
	logger.Info("mongo document stores enabled", "database", cfg.Mongo.Database)
	return docStores{
		usage:    docstore.NewMongoUsageRepository(db),
		sessions: sessions,
		pdfs:     docstore.NewMongoPDFRepository(db),
	}
}

func provideUsageRepository(s docStores) usage.Repository { return s.usage }

func provideSessionRepository(s docStores) assistant.SessionRepository { return s.sessions }

func providePDFRepository(s docStores) document.PDFRepository { return s.pdfs }

func provideAssistantConfig(cfg *config.Config) assistant.Config {
	return assistant.Config{
		InlineErrors:     cfg.Assistant.InlineErrors,
		LogCannedReplies: cfg.Assistant.LogCannedReplies,
	}
}

func provideDocumentConfig(cfg *config.Config) document.Config {
	return document.Config{
		MaxFileBytes: cfg.Document.MaxFileBytes,
		DefaultMode:  document.Mode(cfg.Document.DefaultMode),
	}
}

func provideExtractors() document.Extractors {
	return document.Extractors{PDF: extract.NewPDF(), DOCX: extract.NewDOCX()}
}

// provideBlobStore returns nil when archiving is not configured; the document
// service treats a nil store as disabled.
func provideBlobStore(cfg *config.Config, logger *slog.Logger) document.BlobStore {
	storeCfg := blobstore.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	}
	if !storeCfg.Enabled() {
		logger.Info("object storage not configured, uploads are not archived")
		return nil
	}
	store, err := blobstore.NewS3Storage(storeCfg, logger)
	if err != nil {
		logger.Error("object storage init failed, uploads are not archived", "error", err)
		return nil
	}
	logger.Info("object storage enabled", "bucket", storeCfg.Bucket)
	return store
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		SessionTTL:        cfg.Auth.SessionTTL,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	}
}

func provideSessionStore(cfg *config.Config, res *bootstrap.Resources, logger *slog.Logger) auth.SessionStore {
	addr := strings.TrimSpace(cfg.Session.ValkeyAddr)
	if addr == "" {
		logger.Info("session valkey address not set, using memory session store")
		return websession.NewMemoryStore()
	}
	opt, err := buildValkeyOptions(addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return websession.NewMemoryStore()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return websession.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return websession.NewMemoryStore()
	}
	res.Add("valkey", func(context.Context) error {
		client.Close()
		return nil
	})
	logger.Info("valkey session store enabled", "addr", addr)
	return websession.NewValkeyStore(client, cfg.Session.Prefix)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideIdentityProvider(cfg *config.Config, res *bootstrap.Resources, logger *slog.Logger) (auth.IdentityProvider, error) {
	if cfg.Auth.Provider == config.AuthFirebase {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		provider, err := firebase.NewProvider(ctx, firebase.Config{
			APIKey:          cfg.Auth.Firebase.APIKey,
			ProjectID:       cfg.Auth.Firebase.ProjectID,
			CredentialsFile: cfg.Auth.Firebase.CredentialsFile,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("firebase identity provider enabled", "project", cfg.Auth.Firebase.ProjectID)
		return provider, nil
	}
	users := provideUserRepository(cfg, res, logger)
	return local.NewProvider(local.Config{Secret: cfg.Auth.Secret, TokenTTL: cfg.Auth.TokenTTL}, users, logger), nil
}

func provideUserRepository(cfg *config.Config, res *bootstrap.Resources, logger *slog.Logger) local.UserRepository {
	fallback := userrepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Auth.Postgres.DSN)
	if dsn == "" {
		logger.Info("auth postgres dsn not set, using memory user repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory user repository", "error", err)
		return fallback
	}
	if cfg.Auth.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Auth.Postgres.MaxConns
	}
	if cfg.Auth.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Auth.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory user repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory user repository", "error", err)
		pool.Close()
		return fallback
	}
	repo := userrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("users schema setup failed, using memory user repository", "error", err)
		pool.Close()
		return fallback
	}
	res.Add("postgres", func(context.Context) error {
		pool.Close()
		return nil
	})
	logger.Info("auth postgres user repository enabled")
	return repo
}
