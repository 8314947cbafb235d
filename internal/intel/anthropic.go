package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/jaliltomas/preciosbot/internal/pricing"
)

const (
	DefaultModel         = "claude-haiku-4-5-20251001"
	DefaultMaxTokens     = 1024
	DefaultRetryAttempts = 3
	DefaultRetryBaseWait = time.Second
)

// AnthropicOptions configures the language model adapter.
type AnthropicOptions struct {
	APIKey        string
	Model         string
	MaxTokens     int64
	RetryAttempts int
	RetryBaseWait time.Duration
}

// AnthropicClient implements Client on the Anthropic Messages API.
type AnthropicClient struct {
	client        sdk.Client
	model         string
	maxTokens     int64
	retryAttempts int
	retryBaseWait time.Duration
	logger        zerolog.Logger
}

func NewAnthropicClient(opts AnthropicOptions, logger zerolog.Logger) *AnthropicClient {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	attempts := opts.RetryAttempts
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	baseWait := opts.RetryBaseWait
	if baseWait <= 0 {
		baseWait = DefaultRetryBaseWait
	}

	return &AnthropicClient{
		client:        sdk.NewClient(option.WithAPIKey(opts.APIKey)),
		model:         model,
		maxTokens:     maxTokens,
		retryAttempts: attempts,
		retryBaseWait: baseWait,
		logger:        logger,
	}
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string) (string, error) {
	var text string
	err := withRetry(ctx, c.retryAttempts, c.retryBaseWait, func() error {
		msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
			Model:     sdk.Model(c.model),
			MaxTokens: c.maxTokens,
			Messages: []sdk.MessageParam{
				sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return fmt.Errorf("create message: %w", err)
		}

		var b strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		text = strings.TrimSpace(b.String())
		if text == "" {
			return fmt.Errorf("empty model response")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *AnthropicClient) IsPriceList(ctx context.Context, message string) (bool, error) {
	response, err := c.complete(ctx, buildDetectPrompt(message))
	if err != nil {
		return false, fmt.Errorf("detect price list: %w", err)
	}

	var decoded struct {
		EsLista bool `json:"esLista"`
	}
	if err := decodeLooseJSON(response, &decoded); err != nil {
		return false, fmt.Errorf("detect price list: %w", err)
	}
	return decoded.EsLista, nil
}

// rawLineItem tolerates the price arriving as a JSON number or a string.
type rawLineItem struct {
	Nombre string          `json:"nombre"`
	Precio json.RawMessage `json:"precio"`
}

func (c *AnthropicClient) ExtractItems(ctx context.Context, message string) (bool, []LineItem, error) {
	response, err := c.complete(ctx, buildExtractPrompt(message))
	if err != nil {
		return false, nil, fmt.Errorf("extract items: %w", err)
	}

	var decoded struct {
		EsLista   bool          `json:"esLista"`
		Productos []rawLineItem `json:"productos"`
	}
	if err := decodeLooseJSON(response, &decoded); err != nil {
		return false, nil, fmt.Errorf("extract items: %w", err)
	}
	if !decoded.EsLista {
		return false, nil, nil
	}

	items := make([]LineItem, 0, len(decoded.Productos))
	for _, product := range decoded.Productos {
		name := strings.TrimSpace(product.Nombre)
		if name == "" {
			continue
		}
		items = append(items, LineItem{
			Name:  name,
			Price: decodePrice(product.Precio),
		})
	}
	return true, items, nil
}

func (c *AnthropicClient) NormalizeName(ctx context.Context, rawName string) (string, error) {
	response, err := c.complete(ctx, buildNormalizePrompt(rawName))
	if err != nil {
		return "", fmt.Errorf("normalize name: %w", err)
	}

	normalized := strings.Trim(strings.TrimSpace(response), `"'`)
	if normalized == "" {
		return "", fmt.Errorf("normalize name: empty result for %q", rawName)
	}
	return normalized, nil
}

func (c *AnthropicClient) ConfirmIdentity(ctx context.Context, offered, candidate string) (bool, error) {
	response, err := c.complete(ctx, buildConfirmIdentityPrompt(offered, candidate))
	if err != nil {
		return false, fmt.Errorf("confirm identity: %w", err)
	}

	var decoded struct {
		EsMismo bool `json:"esMismo"`
	}
	if err := decodeLooseJSON(response, &decoded); err != nil {
		return false, fmt.Errorf("confirm identity: %w", err)
	}
	return decoded.EsMismo, nil
}

func (c *AnthropicClient) ClassifyCategory(ctx context.Context, productName string, price float64, categories []CategoryOption) (string, error) {
	response, err := c.complete(ctx, buildClassifyPrompt(productName, price, categories))
	if err != nil {
		return "", fmt.Errorf("classify category: %w", err)
	}

	var decoded struct {
		Categoria string `json:"categoria"`
	}
	if err := decodeLooseJSON(response, &decoded); err != nil {
		return "", fmt.Errorf("classify category: %w", err)
	}
	return strings.TrimSpace(decoded.Categoria), nil
}

// decodePrice reads a price that may arrive as a number or as free-form text.
func decodePrice(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return pricing.Parse(text)
	}
	return 0
}
