package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/handlers"
	"github.com/ternarybob/narro/internal/metrics"
	"github.com/ternarybob/narro/internal/services/charts"
	"github.com/ternarybob/narro/internal/services/knowledge"
	"github.com/ternarybob/narro/internal/services/llm"
	"github.com/ternarybob/narro/internal/services/mailer"
	"github.com/ternarybob/narro/internal/services/pdf"
	"github.com/ternarybob/narro/internal/services/reports"
	"github.com/ternarybob/narro/internal/services/scheduler"
	"github.com/ternarybob/narro/internal/services/source"
	"github.com/ternarybob/narro/internal/storage/badger"
	"github.com/ternarybob/narro/internal/workflow"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	StorageManager *badger.Manager
	Metrics        *metrics.Metrics

	// Report pipeline
	KnowledgeService *knowledge.Service
	Controller       *workflow.Controller
	ReportService    *reports.Service
	MailerService    *mailer.Service
	SchedulerService *scheduler.Service

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	ReportHandler    *handlers.ReportHandler
	RunHandler       *handlers.RunHandler
	KnowledgeHandler *handlers.KnowledgeHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
		Metrics:   metrics.New(),
	}

	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Int("max_reflections", cfg.Workflow.MaxReflections).
		Int("accept_score", cfg.Workflow.AcceptScore).
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Bool("schedule_enabled", cfg.Schedule.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens badger and loads the variables and knowledge seed files
func (a *App) initDatabase() error {
	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = manager

	ctx := context.Background()

	if _, _, err := manager.LoadVariablesFromFile(ctx, a.Config.Variables.File); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load variables file")
	}

	// .env is loaded second so its values win
	if _, _, err := manager.LoadEnvFile(ctx, a.Config.Variables.EnvFile); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load .env file")
	}

	if _, _, err := manager.LoadKnowledgeFromFile(ctx, a.Config.Knowledge.SeedFile); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load knowledge seed file")
	}

	return nil
}

// initServices builds the report pipeline in dependency order
func (a *App) initServices() error {
	cfg := a.Config
	kv := a.StorageManager.KeyValueStorage()

	a.KnowledgeService = knowledge.NewService(a.StorageManager.KnowledgeStorage(), cfg.Knowledge.MaxResults, a.Logger)

	providers := llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, kv, a.Logger)

	a.MailerService = mailer.NewService(&cfg.Mail, kv, a.Logger)

	controller, err := workflow.NewController(workflow.Dependencies{
		Retriever: a.KnowledgeService,
		Generator: llm.NewGenerator(providers, &cfg.LLM, cfg.Reports.Language, a.Logger),
		Critic:    llm.NewCritic(providers, &cfg.LLM, a.Logger),
		Charts:    charts.NewRenderer(&cfg.Reports, a.Logger),
		Document:  pdf.NewReportRenderer(&cfg.Reports, a.Logger),
		Mailer:    a.MailerService,
		Runs:      a.StorageManager.RunStorage(),
		Metrics:   a.Metrics,
	}, &cfg.Workflow, cfg.Reports.Title, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create workflow controller: %w", err)
	}
	a.Controller = controller

	var fetcher reports.Fetcher
	if cfg.Source.WebhookURL != "" {
		fetcher = source.NewClient(&cfg.Source, a.Logger)
	}
	a.ReportService = reports.NewService(controller, fetcher, &cfg.Source, &cfg.Schedule, a.Logger)

	a.SchedulerService = scheduler.NewService(kv, a.Logger)
	if cfg.Schedule.Enabled {
		if fetcher == nil {
			a.Logger.Warn().Msg("Schedule enabled but source.webhook_url is empty, scheduled runs will fail")
		}
		if err := a.SchedulerService.RegisterJob(reports.ScheduledJobName, cfg.Schedule.Cron,
			"Daily sales report over the lookback window", a.ReportService.RunScheduled); err != nil {
			return fmt.Errorf("failed to register scheduled report: %w", err)
		}
	}

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.ReportHandler = handlers.NewReportHandler(a.ctx, a.ReportService, a.Logger)
	a.RunHandler = handlers.NewRunHandler(a.StorageManager.RunStorage(), a.Logger)
	a.KnowledgeHandler = handlers.NewKnowledgeHandler(a.StorageManager.KnowledgeStorage(), a.KnowledgeService, a.Logger)
}

// StartScheduler starts cron dispatch when a schedule is configured
func (a *App) StartScheduler() error {
	if !a.Config.Schedule.Enabled {
		return nil
	}
	return a.SchedulerService.Start()
}

// Close closes all application resources
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
