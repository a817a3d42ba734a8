// Package browser отрисовывает страницы в headless Firefox через playwright.
// Используется скрейпером, когда статическая страница LinkedIn не содержит описания.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"jobFeed/internal/logger"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

type Config struct {
	Headless        bool
	BrowsersPath    string
	UserAgent       string
	NavigateTimeout time.Duration
	// PopupWait - пауза после клика по кнопке закрытия попапа.
	PopupWait time.Duration
}

var ErrClosed = errors.New("браузер закрыт")

type PlaywrightBrowser struct {
	cfg Config
	log *logger.Zap

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	closed  bool
}

func New(cfg Config, log *logger.Zap) *PlaywrightBrowser {
	if cfg.NavigateTimeout == 0 {
		cfg.NavigateTimeout = 60 * time.Second
	}
	if cfg.PopupWait == 0 {
		cfg.PopupWait = 500 * time.Millisecond
	}
	return &PlaywrightBrowser{cfg: cfg, log: log}
}

// Launch запускает playwright и Firefox. Повторный вызов ничего не делает.
func (b *PlaywrightBrowser) Launch(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.launchLocked()
}

func (b *PlaywrightBrowser) launchLocked() error {
	if b.closed {
		return ErrClosed
	}
	if b.context != nil {
		return nil
	}

	if b.cfg.BrowsersPath != "" {
		if err := os.Setenv("PLAYWRIGHT_BROWSERS_PATH", b.cfg.BrowsersPath); err != nil {
			return fmt.Errorf("ошибка установки PLAYWRIGHT_BROWSERS_PATH: %w", err)
		}
	}

	pw, err := playwright.Run(&playwright.RunOptions{Browsers: []string{"firefox"}})
	if err != nil {
		return fmt.Errorf("ошибка запуска playwright: %w", err)
	}

	br, err := pw.Firefox.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.cfg.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("ошибка запуска Firefox: %w", err)
	}

	opts := playwright.BrowserNewContextOptions{}
	if b.cfg.UserAgent != "" {
		opts.UserAgent = playwright.String(b.cfg.UserAgent)
	}
	bctx, err := br.NewContext(opts)
	if err != nil {
		_ = br.Close()
		_ = pw.Stop()
		return fmt.Errorf("ошибка создания контекста браузера: %w", err)
	}

	b.pw = pw
	b.browser = br
	b.context = bctx
	b.log.Info("Браузер запущен", zap.Bool("headless", b.cfg.Headless))
	return nil
}

// Render открывает url в новой вкладке, закрывает попапы и возвращает HTML страницы.
// Вызовы сериализуются: в каждый момент открыта одна вкладка.
func (b *PlaywrightBrowser) Render(ctx context.Context, url string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.launchLocked(); err != nil {
		return "", err
	}

	page, err := b.context.NewPage()
	if err != nil {
		return "", fmt.Errorf("ошибка открытия вкладки: %w", err)
	}
	defer func() { _ = page.Close() }()
	page.SetDefaultTimeout(float64(b.cfg.NavigateTimeout.Milliseconds()))

	// Goto не принимает context, поэтому отмену отслеживаем отдельно
	errChan := make(chan error, 1)
	go func() {
		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(b.cfg.NavigateTimeout.Milliseconds())),
		})
		errChan <- err
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errChan:
		if err != nil {
			return "", fmt.Errorf("ошибка навигации: %w", err)
		}
	}

	b.closePopups(page)

	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("ошибка получения HTML: %w", err)
	}
	return content, nil
}

func (b *PlaywrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	var errs []error
	if b.context != nil {
		errs = append(errs, b.context.Close())
	}
	if b.browser != nil {
		errs = append(errs, b.browser.Close())
	}
	if b.pw != nil {
		errs = append(errs, b.pw.Stop())
	}
	b.context, b.browser, b.pw = nil, nil, nil
	return errors.Join(errs...)
}
