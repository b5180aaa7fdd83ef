package guardrail

import (
	"context"
	"regexp"
	"strings"

	"github.com/opsloop/agentrt/agent"
)

var promptInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|my)\s+`),
	regexp.MustCompile(`(?i)\bjailbreak\b`),
	regexp.MustCompile(`(?i)reveal\s+(your|the)\s+(system\s+)?(prompt|instructions?)`),
}

// PromptInjectionPreLLM is a ready-made PreLLMHook that vetoes a run when
// the most recent user message matches a common prompt-injection pattern.
// Callers wire it in explicitly; it is never applied automatically.
func PromptInjectionPreLLM() PreLLMHook {
	return func(_ context.Context, _ agent.RunID, _ int, snapshot []agent.Message) *Veto {
		for i := len(snapshot) - 1; i >= 0; i-- {
			if snapshot[i].Role != agent.RoleUser {
				continue
			}
			text := snapshot[i].Text()
			for _, pattern := range promptInjectionPatterns {
				if pattern.MatchString(text) {
					return &Veto{Reason: "prompt_injection"}
				}
			}
			return nil
		}
		return nil
	}
}

// ContentFilterPostLLM is a ready-made PostLLMHook that vetoes a run when
// the assistant's reply contains one of the given blocked words or
// phrases, matched case-insensitively.
func ContentFilterPostLLM(blockedPhrases []string) PostLLMHook {
	lowered := make([]string, len(blockedPhrases))
	for i, phrase := range blockedPhrases {
		lowered[i] = strings.ToLower(phrase)
	}
	return func(_ context.Context, _ agent.RunID, _ int, turn agent.AssistantTurn) *Veto {
		text := strings.ToLower(turn.Message.Text())
		for _, phrase := range lowered {
			if phrase != "" && strings.Contains(text, phrase) {
				return &Veto{Reason: "content_filter"}
			}
		}
		return nil
	}
}
