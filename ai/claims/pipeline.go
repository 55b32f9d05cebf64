package claims

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/docread"
	"github.com/hrygo/agenthub/ai/internal/strutil"
	"github.com/hrygo/agenthub/ai/vector"
)

// rulesTopK is the number of rule passages retrieved for a decision.
const rulesTopK = 5

// Pipeline turns a complete claim into a decision report.
type Pipeline struct {
	llm      llm.Service
	searcher vector.Searcher
}

// NewPipeline creates a pipeline. searcher may be nil, in which case the
// rules section says the lookup is unavailable.
func NewPipeline(llmService llm.Service, searcher vector.Searcher) *Pipeline {
	return &Pipeline{llm: llmService, searcher: searcher}
}

// Input is a claim ready for processing.
type Input struct {
	ClaimForm    string
	DamageImage  string
	PoliceReport string // empty when skipped
	Query        string
}

// Run extracts the claim form, the damage assessment and the police report
// concurrently, looks up the applicable rules and asks for a decision.
func (p *Pipeline) Run(ctx context.Context, in Input) (string, error) {
	var claim, damage, police string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		claim, err = p.extractClaim(gctx, in.ClaimForm)
		if err != nil {
			return fmt.Errorf("claim form extraction: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		damage, err = p.assessDamage(gctx, in.DamageImage)
		if err != nil {
			return fmt.Errorf("damage assessment: %w", err)
		}
		return nil
	})
	if in.PoliceReport != "" {
		g.Go(func() error {
			var err error
			police, err = p.extractPoliceReport(gctx, in.PoliceReport)
			if err != nil {
				return fmt.Errorf("police report extraction: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	rules := p.lookupRules(ctx, claim, damage)

	decision, _, err := p.llm.Chat(ctx, decisionMessages(claim, damage, police, rules, in.Query), llm.WithTemperature(0.1))
	if err != nil {
		return "", fmt.Errorf("decision: %w", err)
	}
	return decision, nil
}

func (p *Pipeline) extractClaim(ctx context.Context, path string) (string, error) {
	human, err := documentMessage(path,
		"This is a scanned insurance claim form. Please read and extract all details from it.",
		"CLAIM FORM CONTENT")
	if err != nil {
		return "", err
	}
	out, _, err := p.llm.Chat(ctx, []llm.Message{llm.SystemPrompt(claimExtractionPrompt), human}, llm.WithTemperature(0))
	return out, err
}

func (p *Pipeline) extractPoliceReport(ctx context.Context, path string) (string, error) {
	human, err := documentMessage(path,
		"This is a scanned police/incident report. Please read and extract all details from it.",
		"POLICE REPORT CONTENT")
	if err != nil {
		return "", err
	}
	out, _, err := p.llm.Chat(ctx, []llm.Message{llm.SystemPrompt(policeExtractionPrompt), human}, llm.WithTemperature(0))
	return out, err
}

func (p *Pipeline) assessDamage(ctx context.Context, path string) (string, error) {
	img, err := llm.LoadImage(path)
	if err != nil {
		return "", err
	}
	slog.Info("claims: assessing damage image", "file", path, "mime", img.MIMEType)
	out, _, err := p.llm.Chat(ctx, []llm.Message{llm.UserMessageWithImages(damageAssessmentPrompt, img)}, llm.WithTemperature(0.2))
	return out, err
}

// documentMessage reads a scanned image through vision and any other file as text.
func documentMessage(path, visionInstruction, textLabel string) (llm.Message, error) {
	if agents.IsImage(path) {
		img, err := llm.LoadImage(path)
		if err != nil {
			return llm.Message{}, err
		}
		return llm.UserMessageWithImages(visionInstruction, img), nil
	}
	text, err := docread.ReadText(path, docread.DefaultMaxChars)
	if err != nil {
		return llm.Message{}, err
	}
	slog.Info("claims: extracted document text", "file", path, "chars", len(text))
	return llm.UserMessage(textLabel + ":\n\n" + text), nil
}

// lookupRules never fails the pipeline; problems are reported inline.
func (p *Pipeline) lookupRules(ctx context.Context, claim, damage string) string {
	if p.searcher == nil {
		return "[Rules lookup unavailable: no search index configured]"
	}
	query := fmt.Sprintf("Insurance claim rules for: %s Damage assessment: %s",
		strutil.Head(claim, 500), strutil.Head(damage, 500))

	hits, err := p.searcher.Search(ctx, vector.IndexClaimsRules, query, rulesTopK)
	if err != nil {
		slog.Warn("claims: rules lookup failed", "error", err)
		return fmt.Sprintf("[Rules lookup error: %v]", err)
	}
	if len(hits) == 0 {
		return "[No matching rules found in the cicp index]"
	}
	sections := make([]string, len(hits))
	for i, h := range hits {
		sections[i] = fmt.Sprintf("**Rule %d:**\n%s", i+1, h.Content)
	}
	return strings.Join(sections, "\n\n---\n\n")
}

func decisionMessages(claim, damage, police, rules, query string) []llm.Message {
	instruction := noPoliceReportInstruction
	if police != "" {
		instruction = crossVerificationInstruction
	}

	var human strings.Builder
	fmt.Fprintf(&human, "## Original User Request\n%s\n\n", query)
	fmt.Fprintf(&human, "## Claim Form Details\n%s\n\n", claim)
	fmt.Fprintf(&human, "## Damage Assessment\n%s\n\n", damage)
	if police != "" {
		fmt.Fprintf(&human, "## Police Report Details\n%s\n\n", police)
	} else {
		human.WriteString("## Police Report\n⚠️ **Not provided by claimant.**\n\n")
	}
	fmt.Fprintf(&human, "## Applicable Insurance Rules\n%s", rules)

	return []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(decisionPrompt, instruction)),
		llm.UserMessage(human.String()),
	}
}
