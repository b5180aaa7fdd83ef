package openai

import (
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/opsloop/agentrt/agent"
)

// tokenCounter wraps a tiktoken-go encoding to approximate prompt token
// cost within the ±5% tolerance required of TokenCounter implementations.
type tokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func newTokenCounter(model string) (*tokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load fallback encoding: %w", err)
		}
	}
	return &tokenCounter{encoding: encoding}, nil
}

// Count approximates the OpenAI chat-completions token overhead per
// message (a small fixed cost for role/name framing, per the provider's
// documented counting scheme) plus the encoded length of role, name, and
// text content.
func (c *tokenCounter) Count(messages []agent.Message) (int, error) {
	const perMessageOverhead = 4
	const perReplyPrimer = 2

	total := perReplyPrimer
	for _, message := range messages {
		total += perMessageOverhead
		total += len(c.encoding.Encode(string(message.Role), nil, nil))
		if message.Name != "" {
			total += len(c.encoding.Encode(message.Name, nil, nil))
		}
		if text := message.Text(); text != "" {
			total += len(c.encoding.Encode(text, nil, nil))
		}
		for _, call := range message.ToolCalls {
			total += len(c.encoding.Encode(call.Name, nil, nil))
			total += len(c.encoding.Encode(argumentsPreview(call.Arguments), nil, nil))
		}
	}
	return total, nil
}

func argumentsPreview(arguments map[string]any) string {
	if len(arguments) == 0 {
		return ""
	}
	var b strings.Builder
	for k := range arguments {
		b.WriteString(k)
	}
	return b.String()
}
