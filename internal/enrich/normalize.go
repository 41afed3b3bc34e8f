package enrich

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/leadwatch/internal/model"
)

var folder = cases.Fold()

// NormalizeSentiment maps a model-supplied tone onto the closed sentiment
// set, defaulting to neutral.
func NormalizeSentiment(raw string) model.Sentiment {
	s := model.Sentiment(folder.String(strings.TrimSpace(raw)))
	switch s {
	case model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative:
		return s
	default:
		return model.SentimentNeutral
	}
}

// NormalizeEventType returns "other" for a blank event type and the raw
// value otherwise.
func NormalizeEventType(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return model.EventOther
	}
	return raw
}
