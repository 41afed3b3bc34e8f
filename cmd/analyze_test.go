package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadwatch/internal/chat"
	"github.com/sells-group/leadwatch/internal/enrich"
	"github.com/sells-group/leadwatch/internal/model"
)

func testResult() *enrich.Result {
	company := "Vercel"
	amount := int64(40_000_000)
	return &enrich.Result{
		Lead: &model.EnrichedLead{
			Company:       &company,
			FundingAmount: &amount,
			Amount:        "40000000",
			Sentiment:     model.SentimentPositive,
			EventType:     model.EventFunding,
			IsValidAmount: true,
		},
		Usage: chat.Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000},
		Model: "deepseek/deepseek-chat",
		Raw:   `{"company":"Vercel"}`,
	}
}

func TestNewAnalysis(t *testing.T) {
	c := testConfig(t)

	a := newAnalysis(c, defaultHeadline, testResult())
	assert.Equal(t, "Vercel raises $40M", a.Headline)
	assert.True(t, a.Relevant)
	assert.Empty(t, a.Raw)
	assert.InDelta(t, 1.50, a.CostUSD, 0.0001)
}

func TestNewAnalysis_Unparseable(t *testing.T) {
	c := testConfig(t)
	res := testResult()
	res.Lead = nil
	res.Raw = "I cannot help with that."

	a := newAnalysis(c, "Some headline", res)
	assert.Nil(t, a.Lead)
	assert.False(t, a.Relevant)
	assert.Equal(t, "I cannot help with that.", a.Raw)
}

func TestNewAnalysis_IrrelevantEvent(t *testing.T) {
	c := testConfig(t)
	res := testResult()
	res.Lead.EventType = model.EventHiring

	a := newAnalysis(c, "Vercel hires", res)
	assert.False(t, a.Relevant)
}

func TestRenderAnalysis_JSON(t *testing.T) {
	c := testConfig(t)
	var buf bytes.Buffer
	require.NoError(t, renderAnalysis(&buf, "json", newAnalysis(c, defaultHeadline, testResult())))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	lead := got["lead"].(map[string]any)
	assert.Equal(t, "Vercel", lead["company"])
	assert.Equal(t, float64(40_000_000), lead["funding_amount"])
	assert.Equal(t, "funding", lead["event_type"])
}

func TestRenderAnalysis_YAML(t *testing.T) {
	c := testConfig(t)
	var buf bytes.Buffer
	require.NoError(t, renderAnalysis(&buf, "yaml", newAnalysis(c, defaultHeadline, testResult())))

	var got analysis
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.NotNil(t, got.Lead)
	assert.Equal(t, "Vercel", got.Lead.CompanyName())
	assert.Equal(t, int64(40_000_000), *got.Lead.FundingAmount)
	assert.Equal(t, model.SentimentPositive, got.Lead.Sentiment)
	assert.Contains(t, buf.String(), "headline: Vercel raises $40M")
}

func TestAnalyzeCommand_RejectsFormat(t *testing.T) {
	testConfig(t)
	analyzeFormat = "xml"
	t.Cleanup(func() { analyzeFormat = "json" })

	err := analyzeCmd.RunE(analyzeCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestAnalyzeCommand_RequiresChatKey(t *testing.T) {
	c := testConfig(t)
	c.Chat.APIKey = ""

	err := analyzeCmd.RunE(analyzeCmd, []string{"Acme raises $5M"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: validation failed")
}
