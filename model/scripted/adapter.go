// Package scripted provides a deterministic Model for tests and
// demonstrations: a fixed sequence of turns played back in order.
package scripted

import (
	"context"
	"fmt"
	"sync"

	"github.com/opsloop/agentrt/agent"
)

// Turn configures one scripted model response.
type Turn struct {
	AssistantTurn agent.AssistantTurn
	Err           error
}

// Adapter is a Model that replays a fixed script of turns, one per
// Generate call, regardless of the request contents.
type Adapter struct {
	mu    sync.Mutex
	index int
	turns []Turn
}

var _ agent.Model = (*Adapter)(nil)

// New constructs a scripted Adapter from an ordered list of turns.
func New(turns ...Turn) *Adapter {
	cloned := make([]Turn, len(turns))
	copy(cloned, turns)
	return &Adapter{turns: cloned}
}

// NewTextScript is a convenience constructor for a script of plain-text
// assistant replies, each finishing with FinishReasonStop.
func NewTextScript(replies ...string) *Adapter {
	turns := make([]Turn, len(replies))
	for i, reply := range replies {
		turns[i] = Turn{
			AssistantTurn: agent.AssistantTurn{
				Message:      agent.NewAssistantMessage(reply, nil),
				FinishReason: agent.FinishReasonStop,
			},
		}
	}
	return New(turns...)
}

func (a *Adapter) Generate(_ context.Context, _ agent.ModelRequest) (agent.AssistantTurn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.index >= len(a.turns) {
		return agent.AssistantTurn{}, fmt.Errorf("scripted: script exhausted after %d turns", a.index)
	}
	current := a.turns[a.index]
	a.index++
	if current.Err != nil {
		return agent.AssistantTurn{}, current.Err
	}
	turn := current.AssistantTurn
	turn.Message = agent.CloneMessage(turn.Message)
	if turn.Message.Role == "" {
		turn.Message.Role = agent.RoleAssistant
	}
	return turn, nil
}
