// Package enrich turns a news headline into a validated lead by asking a
// chat model for structured JSON and normalizing its reply.
package enrich

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatch/internal/chat"
	"github.com/sells-group/leadwatch/internal/model"
)

// ErrEmptyResponse is returned when the model reply carries no content.
var ErrEmptyResponse = eris.New("enrich: no content returned from model")

var errNotObject = eris.New("enrich: reply is not a json object")

// Defaults for the extraction request.
const (
	DefaultModel       = "deepseek/deepseek-chat"
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.1
)

// Config controls the extraction request and the funding floor.
type Config struct {
	Model            string
	MaxTokens        int
	Temperature      float64
	JSONMode         bool
	MinFundingAmount int64
}

// DefaultConfig returns the standard extraction settings.
func DefaultConfig() Config {
	return Config{
		Model:            DefaultModel,
		MaxTokens:        DefaultMaxTokens,
		Temperature:      DefaultTemperature,
		JSONMode:         true,
		MinFundingAmount: DefaultMinFundingAmount,
	}
}

// Result is the outcome of one enrichment call. Lead is nil when no JSON
// object could be recovered from the reply.
type Result struct {
	Lead  *model.EnrichedLead
	Usage chat.Usage
	Model string
	Raw   string
}

// Service extracts leads from headlines.
type Service struct {
	chat     chat.Completer
	cfg      Config
	validate *validator.Validate
}

// NewService creates a Service. Zero config fields take their defaults.
func NewService(c chat.Completer, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.MinFundingAmount <= 0 {
		cfg.MinFundingAmount = def.MinFundingAmount
	}
	return &Service{
		chat:     c,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Enrich runs one extraction for headline.
func (s *Service) Enrich(ctx context.Context, headline string) (*Result, error) {
	resp, err := s.chat.Complete(ctx, chat.Request{
		Messages:    BuildMessages(headline),
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		JSONMode:    s.cfg.JSONMode,
	})
	if err != nil {
		return nil, eris.Wrap(err, "enrich: chat completion")
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, ErrEmptyResponse
	}

	zap.L().Debug("enrich: raw model reply",
		zap.String("headline", headline),
		zap.String("model", resp.Model),
		zap.String("content", resp.Content),
	)

	res := &Result{Usage: resp.Usage, Model: resp.Model, Raw: resp.Content}

	obj := ExtractJSONObject(resp.Content)
	if obj == nil {
		zap.L().Warn("enrich: could not parse json from model output",
			zap.String("headline", headline),
		)
		return res, nil
	}

	lead := s.compose(factFromObject(obj))
	if err := s.validate.Struct(lead); err != nil {
		return nil, eris.Wrap(err, "enrich: invalid lead")
	}
	res.Lead = &lead

	zap.L().Info("enrich: lead extracted",
		zap.String("company", lead.CompanyName()),
		zap.String("amount", lead.Amount),
		zap.Bool("valid_amount", lead.IsValidAmount),
	)
	return res, nil
}

// extractedFact is the untrusted shape of the model's reply.
type extractedFact struct {
	Company   *string
	Amount    *string
	Sentiment string
	EventType string
}

func factFromObject(obj map[string]any) extractedFact {
	var f extractedFact
	if c, ok := obj["company"].(string); ok && strings.TrimSpace(c) != "" {
		c = strings.TrimSpace(c)
		f.Company = &c
	}
	switch a := obj["amount"].(type) {
	case string:
		f.Amount = &a
	case float64:
		s := strconv.FormatFloat(a, 'f', -1, 64)
		f.Amount = &s
	case json.Number:
		s := a.String()
		f.Amount = &s
	}
	f.Sentiment, _ = obj["sentiment"].(string)
	f.EventType, _ = obj["event_type"].(string)
	return f
}

func (s *Service) compose(f extractedFact) model.EnrichedLead {
	var amount *int64
	if f.Amount != nil {
		amount = NormalizeAmount(*f.Amount)
	}
	eventType := NormalizeEventType(f.EventType)
	return model.EnrichedLead{
		Company:       f.Company,
		FundingAmount: amount,
		Amount:        FormatAmount(amount),
		Sentiment:     NormalizeSentiment(f.Sentiment),
		EventType:     eventType,
		IsValidAmount: validateFundingAmount(amount, eventType, s.cfg.MinFundingAmount),
	}
}
