package bootstrap

import (
	"ai-grammar-companion/internal/config"
	"ai-grammar-companion/internal/controller"
	"ai-grammar-companion/internal/handler"
	"ai-grammar-companion/internal/monitor"
	"ai-grammar-companion/internal/pkg/logger"
	"ai-grammar-companion/internal/repository/memory"
	"ai-grammar-companion/internal/service"
	"ai-grammar-companion/internal/websocket"
	"ai-grammar-companion/pkg/events"
	"ai-grammar-companion/pkg/llm/ollama"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	GrammarController controller.IGrammarController

	// WebSocket channel handlers
	PageHandler   *handler.PageHandler
	ViewerHandler *handler.ViewerHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	WebSocketHub *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Model Service Client
	llmProvider := ollama.NewOllamaProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaModel,
		cfg.Ai.RequestTimeout,
	)

	// 4. State
	historyRepo := memory.NewHistoryRepository(cfg.Check.HistoryCapacity)

	// 5. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/channels.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 6. Services
	publisherService := service.NewPublisherService(events.TopicPageNotify, pubSub)

	coordinatorService := service.NewCoordinatorService(
		cfg.Check,
		llmProvider,
		historyRepo,
		publisherService,
		sysLogger,
	)

	// 7. Page Monitors
	// One monitor per page session, created lazily as field events and
	// viewer-status notifications arrive.
	registry := monitor.NewRegistry(
		monitor.Config{
			TypingPause:   cfg.Check.TypingPause,
			SettleDelay:   cfg.Check.SettleDelay,
			MinTextLength: cfg.Check.MinTextLength,
		},
		coordinatorService,
		handler.NewPageNotifierFactory(wsHub),
		sysLogger,
	)

	consumerService := service.NewConsumerService(
		pubSub,
		events.TopicPageNotify,
		registry,
		sysLogger,
	)

	// 8. Handlers & Controllers
	return &Container{
		GrammarController: controller.NewGrammarController(coordinatorService),
		PageHandler:       handler.NewPageHandler(wsHub, registry, wsLogger),
		ViewerHandler:     handler.NewViewerHandler(wsHub, coordinatorService, wsLogger),
		ConsumerService:   consumerService,
		WebSocketHub:      wsHub,
	}
}
