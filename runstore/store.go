// Package runstore defines the persistence contract for completed run
// results, independent of any particular backing store.
package runstore

import (
	"github.com/opsloop/agentrt/agent"
)

// Store persists terminal AgentRunResults for later retrieval by RunID.
// It is the same contract as agent.RunStore: the engine never calls it
// itself, callers wire it in around Runner.Run.
type Store = agent.RunStore
