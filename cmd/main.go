package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"jobFeed/internal/agent"
	"jobFeed/internal/browser"
	"jobFeed/internal/cli"
	"jobFeed/internal/config"
	"jobFeed/internal/database"
	"jobFeed/internal/feed"
	"jobFeed/internal/llm"
	"jobFeed/internal/logger"
	"jobFeed/internal/migrations"
	"jobFeed/internal/pipeline"
	"jobFeed/internal/scheduler"
	"jobFeed/internal/scraper"
	"jobFeed/internal/search"
	"jobFeed/internal/server"
	"jobFeed/internal/tools"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Ошибка конфигурации", zap.Error(err))
	}

	if err := migrations.Run(cfg, log); err != nil {
		log.Fatal("Ошибка миграций", zap.Error(err))
	}

	db, err := database.New(cfg, log)
	if err != nil {
		log.Fatal("Ошибка подключения к БД", zap.Error(err))
	}
	defer db.Close(log)

	repo := database.NewRepository(db.DB)
	sink := logger.NewDBSink(repo, log.Named("sink"))

	toolCfg, err := tools.LoadConfig(cfg.Agent.ToolConfigPath)
	if err != nil {
		log.Fatal("Ошибка конфигурации инструментов", zap.Error(err))
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:            cfg.OpenAI.KeyAI,
		Model:             cfg.OpenAI.Model,
		BaseURL:           cfg.OpenAI.BaseURL,
		MaxTokens:         cfg.OpenAI.MaxTokens,
		RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
		TokensPerHour:     cfg.OpenAI.TokensPerHour,
	}, repo)

	mcpClient := tools.NewMCPClient(cfg.MCP.URL, log.Named("mcp"))
	defer mcpClient.Close()

	tavily := search.NewClient(cfg.Tavily.APIKey, log.Named("tavily"))
	if cfg.Tavily.APIKey == "" {
		log.Warn("TAVILY_API_KEY не задан, описание компаний будет пустым")
	}

	var renderer scraper.Renderer
	if cfg.Browser.Enabled {
		br := browser.New(browser.Config{
			Headless:     cfg.Browser.Headless,
			BrowsersPath: cfg.Browser.BrowsersPath,
		}, log.Named("browser"))
		defer br.Close()
		renderer = br
	}
	jobScraper := scraper.New(scraper.Options{
		Timeout:  cfg.Scraper.Timeout,
		MaxChars: cfg.Scraper.MaxChars,
	}, renderer, log.Named("scraper"))

	policy, err := agent.ParseEnrichPolicy(cfg.Agent.EnrichPolicy)
	if err != nil {
		log.Fatal("Ошибка конфигурации агента", zap.Error(err))
	}

	jobAgent := agent.New(agent.Collaborators{
		Model:     llmClient,
		Completer: llmClient,
		Tools:     mcpClient,
		Local:     []tools.LocalTool{tools.NewCompanySearchTool(tavily)},
		Search:    tavily,
		Scraper:   jobScraper,
		Profiles:  agent.FileProfileStore{},
	}, toolCfg, log.Named("agent"), agent.Config{
		MaxSteps:       cfg.Agent.MaxSteps,
		EnrichMinDelay: cfg.Agent.EnrichMinDelay,
		EnrichMaxDelay: cfg.Agent.EnrichMaxDelay,
		EnrichPolicy:   policy,
		MaxConcurrency: cfg.Agent.MaxConcurrency,
		ProfilePath:    cfg.Agent.ProfilePath,
	})

	publisher := feed.NewPublisher(feed.Config{
		Path:        cfg.Feed.Path,
		BaseURL:     cfg.Feed.BaseURL,
		Title:       cfg.Feed.Title,
		Description: cfg.Feed.Description,
	})

	runner := pipeline.NewRunner(pipeline.Deps{
		Agent:   jobAgent,
		Feed:    publisher,
		Runs:    repo,
		Logs:    repo,
		Sink:    sink,
		Log:     log.Named("pipeline"),
		Queries: cfg.Agent.Queries,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.App.Mode == "console" {
		console := cli.New(cli.Deps{
			Runner: runner,
			Runs:   repo,
			Logs:   repo,
			Log:    log,
		})
		console.Run(ctx)
		return
	}

	sched, err := scheduler.New(scheduler.Config{
		FeedInterval: cfg.Scheduler.FeedInterval,
		FeedJitter:   cfg.Scheduler.FeedJitter,
		CleanupSpec:  cfg.Scheduler.CleanupSpec,
	}, scheduler.Jobs{
		UpdateFeed: runner.UpdateFeed,
		ClearLogs:  runner.ClearLogs,
	}, log.Named("scheduler"))
	if err != nil {
		log.Fatal("Ошибка планировщика", zap.Error(err))
	}
	sched.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			log.Warn("Ошибка остановки планировщика", zap.Error(err))
		}
	}()

	// стартовая очистка логов и первое обновление ленты
	go sched.RunNow(ctx)

	srv := server.New(cfg, log.Named("http"), repo, runner)
	if err := srv.Run(ctx); err != nil {
		log.Error("Ошибка HTTP-сервера", zap.Error(err))
	}
}
