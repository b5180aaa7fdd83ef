package runner

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsloop/agentrt/agent"
)

// defaultIDGenerator produces UUID v4 run IDs when no IDGenerator is
// wired in explicitly.
type defaultIDGenerator struct{}

func (defaultIDGenerator) NewRunID(_ context.Context) (agent.RunID, error) {
	return agent.RunID(uuid.NewString()), nil
}
