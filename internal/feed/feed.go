// Package feed публикует результат анализа вакансий в виде Atom-ленты.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/feeds"
)

const (
	defaultTitle = "Unknown Job Title"
	defaultHTML  = "<p>No content available.</p>"

	KindInvalidJSON = "InvalidJSON"
	KindWrongShape  = "WrongShape"
)

// ParseError - результат агента не удалось разобрать как массив анализов.
type ParseError struct {
	Kind string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Entry - анализ одной вакансии в том виде, в котором его отдаёт агент.
type Entry struct {
	JobTitle *string `json:"job_title"`
	JobHTML  *string `json:"job_html"`
}

type Config struct {
	Path        string
	BaseURL     string
	Title       string
	Description string
}

// Result описывает опубликованную ленту. ParseErr заполнен, если вместо
// вакансий в ленту попала запись об ошибке.
type Result struct {
	Entries  int
	ParseErr error
}

type Publisher struct {
	cfg   Config
	now   func() time.Time
	newID func() string
}

func NewPublisher(cfg Config) *Publisher {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Publisher{
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return "urn:uuid:" + uuid.NewString() },
	}
}

func (p *Publisher) Path() string {
	return p.cfg.Path
}

func (p *Publisher) selfLink() string {
	return p.cfg.BaseURL + "/rss"
}

// Publish строит ленту из вывода агента и атомарно записывает её в файл.
// Ошибка разбора не прерывает публикацию: в ленту попадает одна запись
// с описанием ошибки и исходным текстом.
func (p *Publisher) Publish(content string) (Result, error) {
	now := p.now()
	feed := &feeds.Feed{
		Id:          p.newID(),
		Title:       p.cfg.Title,
		Link:        &feeds.Link{Href: p.selfLink(), Rel: "self"},
		Description: p.cfg.Description,
		Updated:     now,
		Image: &feeds.Image{
			Url:   p.cfg.BaseURL + "/fluff/logo.png",
			Title: p.cfg.Title,
			Link:  p.selfLink(),
		},
	}

	var res Result
	entries, err := parseEntries(content)
	if err != nil {
		res.ParseErr = err
		feed.Items = []*feeds.Item{p.errorItem(err, content, now)}
	} else {
		for _, e := range entries {
			feed.Items = append(feed.Items, p.item(e, now))
		}
		res.Entries = len(entries)
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return res, fmt.Errorf("ошибка формирования Atom: %w", err)
	}
	if err := writeAtomic(p.cfg.Path, []byte(atom)); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Publisher) item(e Entry, now time.Time) *feeds.Item {
	title := defaultTitle
	if e.JobTitle != nil {
		title = *e.JobTitle
	}
	html := defaultHTML
	if e.JobHTML != nil {
		html = *e.JobHTML
	}
	return &feeds.Item{
		Id:          p.newID(),
		Title:       title,
		Link:        &feeds.Link{Href: p.selfLink()},
		Description: html,
		Created:     now,
		Updated:     now,
	}
}

func (p *Publisher) errorItem(err error, raw string, now time.Time) *feeds.Item {
	kind := KindInvalidJSON
	var perr *ParseError
	if errors.As(err, &perr) {
		kind = perr.Kind
	}
	return &feeds.Item{
		Id:          p.newID(),
		Title:       "Error Processing Job Analysis: " + kind,
		Link:        &feeds.Link{Href: p.selfLink()},
		Description: fmt.Sprintf("Could not process agent output. Error: %v\n\nRaw output:\n%s", err, raw),
		Created:     now,
		Updated:     now,
	}
}

func parseEntries(content string) ([]Entry, error) {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, &ParseError{Kind: KindInvalidJSON, Err: err}
	}
	if _, ok := v.([]any); !ok {
		return nil, &ParseError{Kind: KindWrongShape, Err: errors.New("ожидался массив вакансий")}
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(content), &entries); err != nil {
		return nil, &ParseError{Kind: KindWrongShape, Err: err}
	}
	return entries, nil
}

// writeAtomic пишет во временный файл рядом с целевым и переименовывает его.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла ленты: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи ленты: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи ленты: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("ошибка записи ленты: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("ошибка сохранения ленты %s: %w", path, err)
	}
	return nil
}
