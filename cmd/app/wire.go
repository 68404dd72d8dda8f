//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/edusolve/internal/bootstrap"
	"github.com/yanqian/edusolve/internal/domain/assistant"
	"github.com/yanqian/edusolve/internal/domain/auth"
	"github.com/yanqian/edusolve/internal/domain/document"
	"github.com/yanqian/edusolve/internal/domain/inference"
	"github.com/yanqian/edusolve/internal/domain/usage"
	"github.com/yanqian/edusolve/internal/infra/config"
	httpiface "github.com/yanqian/edusolve/internal/interface/http"
	"github.com/yanqian/edusolve/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		bootstrap.NewResources,
		provideInferenceClient,
		provideInferenceConfig,
		inference.NewInvoker,
		providePromptBuilder,
		provideTokenCounter,
		provideDocStores,
		provideUsageRepository,
		provideSessionRepository,
		providePDFRepository,
		usage.NewService,
		provideAssistantConfig,
		assistant.NewService,
		provideDocumentConfig,
		provideExtractors,
		provideBlobStore,
		document.NewService,
		provideAuthConfig,
		provideSessionStore,
		provideIdentityProvider,
		auth.NewService,
		wire.Bind(new(assistant.Generator), new(*inference.Invoker)),
		wire.Bind(new(document.Generator), new(*inference.Invoker)),
		wire.Bind(new(usage.Tracker), new(*usage.Service)),
		wire.Bind(new(httpiface.ChatService), new(*assistant.Service)),
		wire.Bind(new(httpiface.DocumentService), new(*document.Service)),
		wire.Bind(new(httpiface.UsageService), new(*usage.Service)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
