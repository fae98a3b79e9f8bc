package service

import (
	"context"
	"log"

	"clusterforge/internal/topology"

	"github.com/google/uuid"
)

// LogOrchestrator is the default Orchestrator: it records each dispatch in
// the server log and hands back a request handle without contacting any
// agents. Deployments with a real agent channel swap in their own
// implementation.
type LogOrchestrator struct{}

var _ topology.Orchestrator = (*LogOrchestrator)(nil)

// InstallHost logs the install dispatch and returns a fresh request handle.
func (LogOrchestrator) InstallHost(ctx context.Context, host, cluster string, skipInstall, dontSkipInstall []string, skipFailure bool) (*topology.RequestStatus, error) {
	status := &topology.RequestStatus{ID: uuid.New(), Host: host, Action: "install"}
	log.Printf("Dispatched install request %s for host %s in cluster %s (skip=%v install=%v skipFailure=%t)",
		status.ID, host, cluster, skipInstall, dontSkipInstall, skipFailure)
	return status, nil
}

// StartHost logs the start dispatch and returns a fresh request handle.
func (LogOrchestrator) StartHost(ctx context.Context, host, cluster string, installOnly []string, skipFailure bool) (*topology.RequestStatus, error) {
	status := &topology.RequestStatus{ID: uuid.New(), Host: host, Action: "start"}
	log.Printf("Dispatched start request %s for host %s in cluster %s (installOnly=%v skipFailure=%t)",
		status.ID, host, cluster, installOnly, skipFailure)
	return status, nil
}
