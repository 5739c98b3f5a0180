package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/monitoring"
	"github.com/sells-group/enrich-cli/pkg/anthropic"
)

const systemText = "You are a business analyst extracting structured company intelligence from website content and search results. Return valid JSON matching the requested schema. Use empty strings and empty arrays for fields you cannot determine."

const targetSchema = `{
  "company":    {"legal_name": "", "founded": "", "headquarters": "", "description": ""},
  "business":   {"industry": "", "business_model": "", "services": [], "target_customers": []},
  "people":     {"employee_count": "", "key_people": [], "emails": []},
  "technology": {"platforms": [], "analytics": []},
  "market":     {"competitors": [], "differentiators": [], "funding_stage": ""}
}`

// maxContextBytes bounds the page content embedded in one prompt.
const maxContextBytes = 60000

// ExtractionInput is the consolidated context handed to the oracle. Emails
// must already be SMTP-verified; unverified addresses are stripped upstream
// so the oracle cannot confirm what we cannot verify.
type ExtractionInput struct {
	Domain         string
	Pages          []model.PageRecord
	VerifiedEmails []string
	Phones         []string
	Search         *model.SearchSignals
}

// Extractor sends one consolidated prompt to the LLM oracle and defensively
// parses the structured response.
type Extractor struct {
	client anthropic.Client
	cfg    config.AnthropicConfig
}

// NewExtractor creates an Extractor.
func NewExtractor(client anthropic.Client, cfg config.AnthropicConfig) *Extractor {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &Extractor{client: client, cfg: cfg}
}

// Extract runs one oracle call. A transport or parse failure returns an
// error; the caller treats it as a degraded (nil) stage result, never as a
// job failure.
func (e *Extractor) Extract(ctx context.Context, input ExtractionInput) (*model.OracleExtraction, anthropic.TokenUsage, error) {
	prompt := buildPrompt(input)

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		System:    systemText,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, anthropic.TokenUsage{}, eris.Wrap(err, "oracle: create message")
	}

	usage := resp.Usage
	usage.LogCost(e.cfg.Model, "structured_extraction")
	monitoring.OracleTokens.WithLabelValues("input").Add(float64(usage.InputTokens))
	monitoring.OracleTokens.WithLabelValues("output").Add(float64(usage.OutputTokens))

	extraction, err := ParseResponse(resp.Text())
	if err != nil {
		return nil, usage, eris.Wrap(err, "oracle: parse response")
	}

	zap.L().Info("oracle: extraction complete",
		zap.String("domain", input.Domain),
		zap.String("industry", extraction.Business.Industry),
		zap.Int64("tokens", usage.InputTokens+usage.OutputTokens),
	)
	return extraction, usage, nil
}

// buildPrompt embeds the scraped and searched context plus the fixed target
// schema into a single user message.
func buildPrompt(input ExtractionInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the company operating %s and fill the JSON schema below.\n\n", input.Domain)

	b.WriteString("## Website content\n\n")
	budget := maxContextBytes
	for _, p := range input.Pages {
		if p.Extracted == nil || budget <= 0 {
			continue
		}
		section := fmt.Sprintf("### [%s] %s\nTitle: %s\nDescription: %s\n%s\n\n",
			p.Category, p.URL, p.Extracted.Title, p.Extracted.Description, p.Extracted.Markdown)
		if len(section) > budget {
			section = section[:budget]
		}
		b.WriteString(section)
		budget -= len(section)
	}

	if len(input.VerifiedEmails) > 0 {
		b.WriteString("## Verified contact emails\n" + strings.Join(input.VerifiedEmails, ", ") + "\n\n")
	}
	if len(input.Phones) > 0 {
		b.WriteString("## Phone candidates\n" + strings.Join(input.Phones, ", ") + "\n\n")
	}

	if input.Search != nil && len(input.Search.Findings) > 0 {
		b.WriteString("## Search results\n\n")
		for i, f := range input.Search.Findings {
			if i >= 15 {
				break
			}
			fmt.Fprintf(&b, "- [%s] %s: %s (%s)\n", f.Category, f.Title, f.Snippet, f.Link)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Target schema\n\nReturn exactly one JSON object of this shape:\n\n")
	b.WriteString(targetSchema)
	return b.String()
}
