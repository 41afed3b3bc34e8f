package enrich

import (
	"fmt"
	"strings"

	"github.com/sells-group/leadwatch/internal/chat"
)

var systemPrompt = strings.Join([]string{
	"You extract structured lead data from startup funding headlines.",
	"Return ONLY valid JSON with exactly these keys:",
	`  company (string), amount (integer string, raw digits ONLY, e.g. "40000000"), sentiment ("positive"|"neutral"|"negative"), event_type (string).`,
	"Rules for 'amount':",
	"- ALWAYS return the full numeric value as a string of digits.",
	`- EXAMPLE: "$40M" -> "40000000", "$10,000,000" -> "10000000", "£500k" -> "500000" .`,
	"- If the exact amount is unknown, set amount to null.",
	"Rules for other fields:",
	"- Sentiment: positive for funding/acquisition, neutral for info, negative for layoffs.",
	`- event_type: "funding", "acquisition", "partnership", "hiring", "product_launch", "other".`,
	"- Do not include any extra text or markdown outside the JSON object.",
}, "\n")

// BuildMessages returns the extraction conversation for one headline.
func BuildMessages(headline string) []chat.Message {
	return []chat.Message{
		{Role: chat.RoleSystem, Content: systemPrompt},
		{Role: chat.RoleUser, Content: fmt.Sprintf("Headline: %s\n\nExtract the JSON now.", headline)},
	}
}
