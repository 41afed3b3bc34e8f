package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadwatch/internal/config"
	"github.com/sells-group/leadwatch/internal/enrich"
	"github.com/sells-group/leadwatch/internal/model"
)

const defaultHeadline = "Vercel raises $40M"

var analyzeFormat string

// analysis is the printable result of a single-headline extraction.
type analysis struct {
	Headline     string              `json:"headline" yaml:"headline"`
	Model        string              `json:"model" yaml:"model"`
	Lead         *model.EnrichedLead `json:"lead" yaml:"lead"`
	Relevant     bool                `json:"relevant" yaml:"relevant"`
	InputTokens  int64               `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64               `json:"output_tokens" yaml:"output_tokens"`
	CostUSD      float64             `json:"estimated_cost_usd" yaml:"estimated_cost_usd"`
	Raw          string              `json:"raw,omitempty" yaml:"raw,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [HEADLINE]",
	Short: "Extract a lead from one headline without storing it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeFormat != "json" && analyzeFormat != "yaml" {
			return eris.Errorf("unsupported format %q (json, yaml)", analyzeFormat)
		}
		if err := cfg.Validate(config.NeedChat); err != nil {
			return err
		}

		headline := defaultHeadline
		if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
			headline = strings.TrimSpace(args[0])
		}

		svc, err := initEnricher(cfg)
		if err != nil {
			return err
		}
		res, err := svc.Enrich(cmd.Context(), headline)
		if err != nil {
			return eris.Wrap(err, "analyze headline")
		}

		return renderAnalysis(cmd.OutOrStdout(), analyzeFormat, newAnalysis(cfg, headline, res))
	},
}

func newAnalysis(c *config.Config, headline string, res *enrich.Result) analysis {
	a := analysis{
		Headline:     headline,
		Model:        res.Model,
		Lead:         res.Lead,
		InputTokens:  res.Usage.InputTokens,
		OutputTokens: res.Usage.OutputTokens,
		CostUSD:      initCalculator(c).Chat(res.Model, res.Usage.InputTokens, res.Usage.OutputTokens),
	}
	if res.Lead == nil {
		a.Raw = res.Raw
		return a
	}
	allow := c.Pipeline.RelevantEventTypes
	if len(allow) == 0 {
		allow = model.RelevantEventTypes
	}
	a.Relevant = res.Lead.IsRelevant(allow)
	return a
}

func renderAnalysis(w io.Writer, format string, a analysis) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(analyzeCmd)
}
