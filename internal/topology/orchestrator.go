package topology

import (
	"context"

	"github.com/google/uuid"
)

// RequestStatus is the asynchronous handle returned by the orchestration
// collaborator for an install or start request.
type RequestStatus struct {
	ID     uuid.UUID `json:"id"`
	Host   string    `json:"host"`
	Action string    `json:"action"`
}

// Orchestrator is the cluster/agent orchestration collaborator. The engine
// supplies the component-name partitioning only; execution against remote
// agents is entirely the orchestrator's business.
type Orchestrator interface {
	InstallHost(ctx context.Context, host, cluster string, skipInstall, dontSkipInstall []string, skipFailure bool) (*RequestStatus, error)
	StartHost(ctx context.Context, host, cluster string, installOnly []string, skipFailure bool) (*RequestStatus, error)
}
