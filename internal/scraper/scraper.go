// Package scraper извлекает описание вакансии со страницы LinkedIn.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"jobFeed/internal/logger"
	"jobFeed/internal/retry"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// LinkedIn отвечает 999 на запросы, похожие на ботов
	statusLinkedInBlocked = 999
)

// Селекторы блока описания: основной и запасной (разметка гостевой страницы).
var descriptionSelectors = []string{
	"div.description__text.description__text--rich",
	".show-more-less-html__markup",
}

var ErrDescriptionNotFound = errors.New("блок описания вакансии не найден")

// Error - ошибка загрузки или разбора страницы вакансии.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("страница %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("страница %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Renderer отрисовывает страницу в браузере и возвращает итоговый HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

type Options struct {
	Timeout    time.Duration
	UserAgent  string
	MaxChars   int
	Attempts   int
	RetryDelay time.Duration
}

type Scraper struct {
	httpClient *http.Client
	renderer   Renderer
	opts       Options
	log        *logger.Zap
}

// New создаёт скрейпер. renderer может быть nil: тогда используется только HTTP.
func New(opts Options, renderer Renderer, log *logger.Zap) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 2
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Scraper{
		httpClient: &http.Client{Timeout: opts.Timeout},
		renderer:   renderer,
		opts:       opts,
		log:        log,
	}
}

// Fetch загружает страницу вакансии и возвращает описание в виде Markdown.
// Если в статической странице описания нет, а renderer задан, страница
// отрисовывается в браузере и разбирается повторно.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &Error{URL: rawURL, Message: "некорректный URL", Cause: err}
	}

	var html string
	err = retry.Do(ctx, s.opts.Attempts, s.opts.RetryDelay, func() error {
		var getErr error
		html, getErr = s.get(ctx, rawURL)
		return getErr
	})

	if err == nil {
		desc, extractErr := s.ExtractDescription(html)
		if extractErr == nil {
			return desc, nil
		}
		err = extractErr
	}

	if s.renderer == nil || !needsRender(err) {
		return "", &Error{URL: rawURL, Message: "не удалось получить описание", Cause: err}
	}

	s.log.Debug("Описание не найдено в статической странице, отрисовка в браузере",
		zap.String("url", rawURL), zap.Error(err))

	rendered, renderErr := s.renderer.Render(ctx, rawURL)
	if renderErr != nil {
		return "", &Error{URL: rawURL, Message: "ошибка отрисовки страницы", Cause: renderErr}
	}

	desc, err := s.ExtractDescription(rendered)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "не удалось получить описание после отрисовки", Cause: err}
	}
	return desc, nil
}

func (s *Scraper) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return "", fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &retry.StatusError{Code: resp.StatusCode}
	}
	return string(body), nil
}

// ExtractDescription находит блок описания и конвертирует его в Markdown.
func (s *Scraper) ExtractDescription(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("ошибка разбора HTML: %w", err)
	}

	var block *goquery.Selection
	for _, selector := range descriptionSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			block = sel.First()
			break
		}
	}
	if block == nil {
		return "", ErrDescriptionNotFound
	}

	block.Find("script, style, button").Remove()
	inner, err := block.Html()
	if err != nil {
		return "", fmt.Errorf("ошибка получения HTML блока: %w", err)
	}

	text, err := htmltomarkdown.ConvertString(inner)
	if err != nil || strings.TrimSpace(text) == "" {
		// конвертер не справился, берём плоский текст
		text = block.Text()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrDescriptionNotFound
	}
	return truncate(text, s.opts.MaxChars), nil
}

func needsRender(err error) bool {
	if errors.Is(err, ErrDescriptionNotFound) {
		return true
	}
	var statusErr *retry.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == statusLinkedInBlocked || statusErr.Code == http.StatusForbidden
	}
	return false
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxChars])) + "…"
}
