package assembler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docuchat/internal/ranking"
)

// TokenEstimator estimates the token count of a text. Implementations must be
// deterministic for a given input; the exact heuristic is pluggable.
type TokenEstimator func(text string) int

const charsPerToken = 4

// EstimateTokensByChars is the default estimator: rune count divided by four,
// rounded up. Coarse, but deterministic and alphabet-agnostic.
func EstimateTokensByChars(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}

// Context is an assembled, token-budgeted context with provenance counts.
// Chunks is the number of chunks actually included; SourcesFound is the
// number of ranked candidates the assembler started from.
type Context struct {
	Text         string
	Chunks       int
	SourcesFound int
}

// Assembler turns a ranked result set into a budgeted context string.
// Stateless and safe for concurrent use.
type Assembler struct {
	estimate TokenEstimator
}

// New creates an Assembler. A nil estimator selects EstimateTokensByChars.
func New(estimate TokenEstimator) *Assembler {
	if estimate == nil {
		estimate = EstimateTokensByChars
	}
	return &Assembler{estimate: estimate}
}

// Assemble walks results in their given order, accumulating chunk text until
// adding the next chunk would exceed maxContextTokens. A single chunk longer
// than targetTokensPerChunk is truncated to that budget rather than skipped.
// A non-positive maxContextTokens disables the overall budget.
func (a *Assembler) Assemble(results []ranking.RankedResult, maxContextTokens, targetTokensPerChunk int) Context {
	var b strings.Builder
	used := 0
	included := 0

	for _, res := range results {
		text := flattenMarkdown(res.Text)
		if targetTokensPerChunk > 0 && a.estimate(text) > targetTokensPerChunk {
			text = a.truncateToTokens(text, targetTokensPerChunk)
		}

		block := formatBlock(res, text)
		blockTokens := a.estimate(block)
		if maxContextTokens > 0 && used+blockTokens > maxContextTokens {
			break
		}

		b.WriteString(block)
		used += blockTokens
		included++
	}

	return Context{
		Text:         b.String(),
		Chunks:       included,
		SourcesFound: len(results),
	}
}

func formatBlock(res ranking.RankedResult, text string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[Document: %s]", res.DocumentTitle))
	if res.Heading != "" {
		b.WriteString(fmt.Sprintf(" Section: %s", res.Heading))
	}
	if res.Page > 0 {
		b.WriteString(fmt.Sprintf(" (page %d)", res.Page))
	}
	b.WriteString("\n")
	b.WriteString(text)
	b.WriteString("\n\n")
	return b.String()
}

// truncateToTokens cuts text to at most budget estimated tokens on a rune
// boundary. The initial cut is proportional, then trimmed until the estimate
// fits, which keeps the result deterministic for any estimator.
func (a *Assembler) truncateToTokens(text string, budget int) string {
	total := a.estimate(text)
	if total <= budget {
		return text
	}

	runes := []rune(text)
	cut := len(runes) * budget / total
	if cut > len(runes) {
		cut = len(runes)
	}
	for cut > 0 && a.estimate(string(runes[:cut])) > budget {
		step := 16
		if cut < step {
			step = cut
		}
		cut -= step
	}
	return strings.TrimSpace(string(runes[:cut]))
}
