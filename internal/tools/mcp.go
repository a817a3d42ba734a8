package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"jobFeed/internal/logger"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	stdioPrefix = "stdio://"
	ssePrefix   = "sse://"
)

// ToolError - сервер инструментов вернул результат с IsError.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("инструмент %s вернул ошибку: %s", e.Tool, e.Message)
}

// MCPClient - клиент LinkedIn MCP-сервера. Подключается лениво при первом вызове.
// После ошибки транспорта сессия сбрасывается, и следующий вызов подключается заново.
type MCPClient struct {
	impl      *mcp.Client
	endpoint  string
	transport func(ctx context.Context) (mcp.Transport, error)
	log       *logger.Zap

	mu      sync.Mutex
	session *mcp.ClientSession
}

type MCPOption func(*MCPClient)

// WithTransport подменяет транспорт (используется в тестах с in-memory транспортом).
func WithTransport(t mcp.Transport) MCPOption {
	return WithTransportFactory(func(context.Context) (mcp.Transport, error) { return t, nil })
}

// WithTransportFactory задаёт построение транспорта для каждого нового подключения.
func WithTransportFactory(f func(ctx context.Context) (mcp.Transport, error)) MCPOption {
	return func(c *MCPClient) {
		c.transport = f
	}
}

// NewMCPClient создаёт клиент. endpoint: http(s) URL для streamable HTTP,
// sse://host/path для SSE, stdio://команда для локального процесса.
func NewMCPClient(endpoint string, log *logger.Zap, opts ...MCPOption) *MCPClient {
	c := &MCPClient{
		impl:     mcp.NewClient(&mcp.Implementation{Name: "jobfeed", Version: "1.0.0"}, nil),
		endpoint: endpoint,
		log:      log,
	}
	c.transport = c.buildTransport
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MCPClient) buildTransport(ctx context.Context) (mcp.Transport, error) {
	spec := strings.TrimSpace(c.endpoint)
	if spec == "" {
		return nil, fmt.Errorf("адрес MCP-сервера не задан")
	}

	lowered := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lowered, stdioPrefix):
		parts := strings.Fields(spec[len(stdioPrefix):])
		if len(parts) == 0 {
			return nil, fmt.Errorf("пустая команда stdio")
		}
		return &mcp.CommandTransport{Command: exec.CommandContext(ctx, parts[0], parts[1:]...)}, nil
	case strings.HasPrefix(lowered, ssePrefix):
		return &mcp.SSEClientTransport{Endpoint: "http://" + spec[len(ssePrefix):]}, nil
	case strings.HasPrefix(lowered, "http://"), strings.HasPrefix(lowered, "https://"):
		return &mcp.StreamableClientTransport{Endpoint: spec}, nil
	default:
		return nil, fmt.Errorf("неподдерживаемый адрес MCP-сервера: %s", spec)
	}
}

func (c *MCPClient) connect(ctx context.Context) (*mcp.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	transport, err := c.transport(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания транспорта: %w", err)
	}

	session, err := c.impl.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к MCP-серверу: %w", err)
	}

	c.log.Info("Подключение к MCP-серверу установлено", zap.String("endpoint", c.endpoint))
	c.session = session
	return session, nil
}

// drop закрывает сессию, чтобы следующий вызов переподключился.
func (c *MCPClient) drop(session *mcp.ClientSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == session {
		_ = c.session.Close()
		c.session = nil
	}
}

func (c *MCPClient) ListTools(ctx context.Context) ([]Descriptor, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	var out []Descriptor
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			c.drop(session)
			return nil, fmt.Errorf("ошибка получения инструментов: %w", err)
		}
		out = append(out, Descriptor{
			Name:        tool.Name,
			Description: tool.Description,
			Schema:      tool.InputSchema,
		})
	}

	c.log.Debug("Получены инструменты MCP", zap.Int("count", len(out)))
	return out, nil
}

func (c *MCPClient) InvokeTool(ctx context.Context, name string, args map[string]any) (string, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		// IsError ниже - штатный ответ сервера, сессию сбрасываем только при сбое вызова
		c.drop(session)
		c.log.Warn("Сессия MCP сброшена после ошибки вызова",
			zap.String("tool", name),
			zap.Error(err),
		)
		return "", fmt.Errorf("ошибка вызова инструмента %s: %w", name, err)
	}

	text := resultText(res)
	if res.IsError {
		return "", &ToolError{Tool: name, Message: text}
	}
	return text, nil
}

func (c *MCPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func resultText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
