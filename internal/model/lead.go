package model

import (
	"strings"
	"time"
)

// Sentiment is the closed set of tones a lead can carry.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Event types the extraction prompt asks the model to choose from.
const (
	EventFunding       = "funding"
	EventAcquisition   = "acquisition"
	EventPartnership   = "partnership"
	EventHiring        = "hiring"
	EventProductLaunch = "product_launch"
	EventOther         = "other"
)

// RelevantEventTypes is the default relevance allow-list. Leads with any
// other event type are not persisted.
var RelevantEventTypes = []string{
	EventFunding,
	EventAcquisition,
	EventPartnership,
	EventHiring,
	EventProductLaunch,
}

// CandidateItem is one feed entry considered for enrichment.
type CandidateItem struct {
	Title       string    `json:"title" validate:"required"`
	URL         string    `json:"url" validate:"required"`
	Source      string    `json:"source"`
	FeedURL     string    `json:"feed_url,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed from the
// identity fields.
func (c CandidateItem) Normalized() CandidateItem {
	c.Title = strings.TrimSpace(c.Title)
	c.URL = strings.TrimSpace(c.URL)
	c.Source = strings.TrimSpace(c.Source)
	return c
}

// ShortURL truncates long URLs for log output.
func (c CandidateItem) ShortURL() string {
	if len(c.URL) > 50 {
		return c.URL[:50] + "..."
	}
	return c.URL
}

// EnrichedLead is the validated output of the extraction model.
type EnrichedLead struct {
	Company       *string   `json:"company" yaml:"company"`
	FundingAmount *int64    `json:"funding_amount" yaml:"funding_amount" validate:"omitempty,gte=0"`
	Amount        string    `json:"amount" yaml:"amount"`
	Sentiment     Sentiment `json:"sentiment" yaml:"sentiment" validate:"required,oneof=positive neutral negative"`
	EventType     string    `json:"event_type" yaml:"event_type" validate:"required"`
	IsValidAmount bool      `json:"is_valid_amount" yaml:"is_valid_amount"`
}

// CompanyName returns the company or "" when the model did not name one.
func (l EnrichedLead) CompanyName() string {
	if l.Company == nil {
		return ""
	}
	return *l.Company
}

// IsRelevant reports whether the lead's event type is in allow.
func (l EnrichedLead) IsRelevant(allow []string) bool {
	for _, e := range allow {
		if l.EventType == e {
			return true
		}
	}
	return false
}

// LeadRow is the persisted form of an accepted lead.
type LeadRow struct {
	ID            string    `json:"id"`
	Company       *string   `json:"company"`
	FundingAmount *int64    `json:"funding_amount"`
	SourceURL     string    `json:"source_url"`
	Headline      string    `json:"headline"`
	Source        string    `json:"source"`
	PublishedAt   time.Time `json:"published_at"`
	Sentiment     Sentiment `json:"sentiment"`
	EventType     string    `json:"event_type"`
	IsValidAmount bool      `json:"is_valid_amount"`
	RawAI         []byte    `json:"raw_ai,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DefaultSource labels items whose feed did not report a title.
const DefaultSource = "RSS"

// NewLeadRow maps an accepted lead and the item it came from to a store row.
// A zero PublishedAt falls back to now.
func NewLeadRow(item CandidateItem, lead EnrichedLead, raw []byte, now time.Time) LeadRow {
	source := item.Source
	if source == "" {
		source = DefaultSource
	}
	published := item.PublishedAt
	if published.IsZero() {
		published = now
	}
	return LeadRow{
		Company:       lead.Company,
		FundingAmount: lead.FundingAmount,
		SourceURL:     item.URL,
		Headline:      item.Title,
		Source:        source,
		PublishedAt:   published.UTC(),
		Sentiment:     lead.Sentiment,
		EventType:     lead.EventType,
		IsValidAmount: lead.IsValidAmount,
		RawAI:         raw,
		CreatedAt:     now.UTC(),
	}
}
