package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobFeed/internal/config"
	"jobFeed/internal/database"
	"jobFeed/internal/logger"
	"jobFeed/internal/pipeline"
)

const (
	feedNotReady    = "The RSS feed has not been generated yet. Please wait for the scheduled job to run."
	atomContentType = "application/atom+xml"
	listLimit       = 50
)

// RunReader - чтение истории запусков.
type RunReader interface {
	GetRunByID(id uint) (*database.PipelineRun, error)
	ListRuns(limit, offset int) ([]database.PipelineRun, error)
}

// Trigger запускает обновление ленты в фоне.
type Trigger interface {
	Start(ctx context.Context, query string) (database.PipelineRun, error)
}

type Server struct {
	cfg    *config.Cfg
	log    *logger.Zap
	runs   RunReader
	runner Trigger

	// контекст фоновых запусков, отменяется при остановке сервера
	baseCtx context.Context
}

func New(cfg *config.Cfg, log *logger.Zap, runs RunReader, runner Trigger) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		runs:    runs,
		runner:  runner,
		baseCtx: context.Background(),
	}
}

// Router собирает маршруты. Вынесен отдельно для тестов.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/rss", s.serveFeed)
	r.Static("/fluff", s.cfg.Feed.FluffDir)

	api := r.Group("/api")
	{
		// Список запусков
		api.GET("/runs", func(c *gin.Context) {
			runs, err := s.runs.ListRuns(listLimit, 0)
			if err != nil {
				s.log.Error("db list runs", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
				return
			}
			c.JSON(http.StatusOK, runs)
		})

		// Получить запуск
		api.GET("/runs/:id", func(c *gin.Context) {
			id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
				return
			}
			run, err := s.runs.GetRunByID(uint(id64))
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
					return
				}
				s.log.Error("db get run", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
				return
			}
			c.JSON(http.StatusOK, run)
		})

		// Запустить обновление ленты
		api.POST("/runs", func(c *gin.Context) {
			var req struct {
				Query string `json:"query"`
			}
			if c.Request.ContentLength != 0 {
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
			}

			run, err := s.runner.Start(s.baseCtx, req.Query)
			if err != nil {
				if errors.Is(err, pipeline.ErrRunInProgress) {
					c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				s.log.Error("start run", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
				return
			}
			c.JSON(http.StatusAccepted, run)
		})
	}

	return r
}

func (s *Server) serveFeed(c *gin.Context) {
	data, err := os.ReadFile(s.cfg.Feed.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Error("Ошибка чтения ленты", zap.String("path", s.cfg.Feed.Path), zap.Error(err))
		}
		c.String(http.StatusServiceUnavailable, feedNotReady)
		return
	}
	c.Data(http.StatusOK, atomContentType, data)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("HTTP",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// Run слушает адрес из конфигурации до отмены ctx, затем корректно останавливается.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Сервер запущен", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	s.log.Info("Сервер остановлен")
	return nil
}
