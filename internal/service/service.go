package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"clusterforge/internal/domain"
	"clusterforge/internal/loader"
	"clusterforge/internal/repository"
	"clusterforge/internal/topology"
)

// TopologyService provides business logic for cluster topology operations.
// It owns the live topology instances, resolves blueprint components against
// the stack definition, and persists an assignment snapshot after every
// mutation.
type TopologyService struct {
	store        repository.Store
	stack        topology.StackDefinition
	orchestrator topology.Orchestrator
	eventBus     *EventBus

	mu         sync.RWMutex
	blueprints map[string]*domain.Blueprint
	clusters   map[string]*topology.ClusterTopology
}

// NewTopologyService creates a new topology service.
func NewTopologyService(store repository.Store, stack topology.StackDefinition, orchestrator topology.Orchestrator, eventBus *EventBus) *TopologyService {
	return &TopologyService{
		store:        store,
		stack:        stack,
		orchestrator: orchestrator,
		eventBus:     eventBus,
		blueprints:   make(map[string]*domain.Blueprint),
		clusters:     make(map[string]*topology.ClusterTopology),
	}
}

// RegisterBlueprint makes a blueprint available for provisioning requests.
// Re-registering a name replaces the previous blueprint for future requests;
// already-built topologies keep the instance they were created with.
func (s *TopologyService) RegisterBlueprint(blueprint *domain.Blueprint) error {
	if blueprint == nil || blueprint.Name() == "" {
		return fmt.Errorf("blueprint name required")
	}

	s.mu.Lock()
	s.blueprints[blueprint.Name()] = blueprint
	s.mu.Unlock()

	s.eventBus.Publish(Event{
		Type:    EventBlueprintRegistered,
		Payload: map[string]string{"blueprint": blueprint.Name()},
	})
	return nil
}

// Blueprint retrieves a registered blueprint by name.
func (s *TopologyService) Blueprint(name string) (*domain.Blueprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blueprint, ok := s.blueprints[name]
	if !ok {
		return nil, fmt.Errorf("blueprint %s not registered", name)
	}
	return blueprint, nil
}

// ListBlueprints returns the names of all registered blueprints.
func (s *TopologyService) ListBlueprints() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.blueprints))
	for name := range s.blueprints {
		names = append(names, name)
	}
	return names
}

// CreateCluster builds and registers a topology from a parsed provisioning
// request, persisting the initial assignment snapshot.
func (s *TopologyService) CreateCluster(ctx context.Context, doc *loader.ProvisionRequestDoc) (*topology.ClusterTopology, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clusters[doc.ClusterName]; ok {
		return nil, fmt.Errorf("cluster %s already exists", doc.ClusterName)
	}
	blueprint, ok := s.blueprints[doc.BlueprintName]
	if !ok {
		return nil, fmt.Errorf("blueprint %s not registered", doc.BlueprintName)
	}

	resolved, err := s.resolveComponents(blueprint)
	if err != nil {
		return nil, err
	}

	topo, err := topology.NewClusterTopology(s.stack, &topology.ProvisionRequest{
		ClusterName:   doc.ClusterName,
		Blueprint:     blueprint,
		Configuration: doc.Configuration,
		HostGroups:    doc.HostGroups,
	}, resolved)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveTopology(ctx, snapshotOf(topo)); err != nil {
		return nil, fmt.Errorf("failed to persist cluster %s: %w", doc.ClusterName, err)
	}
	s.clusters[doc.ClusterName] = topo

	s.eventBus.Publish(Event{
		Type: EventClusterCreated,
		Payload: map[string]string{
			"cluster":   doc.ClusterName,
			"blueprint": doc.BlueprintName,
		},
	})
	return topo, nil
}

// Cluster retrieves a live topology by cluster name.
func (s *TopologyService) Cluster(name string) (*topology.ClusterTopology, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topo, ok := s.clusters[name]
	if !ok {
		return nil, fmt.Errorf("cluster %s not found", name)
	}
	return topo, nil
}

// ListClusters returns the names of all live clusters.
func (s *TopologyService) ListClusters() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.clusters))
	for name := range s.clusters {
		names = append(names, name)
	}
	return names
}

// ScaleCluster applies a scale-out update to an existing cluster and persists
// the new assignment state.
func (s *TopologyService) ScaleCluster(ctx context.Context, clusterName string, updates map[string]*topology.HostGroupInfo) error {
	topo, err := s.Cluster(clusterName)
	if err != nil {
		return err
	}
	if err := topo.Update(updates); err != nil {
		return err
	}
	if err := s.store.SaveTopology(ctx, snapshotOf(topo)); err != nil {
		return fmt.Errorf("failed to persist cluster %s: %w", clusterName, err)
	}

	groups := make([]string, 0, len(updates))
	for name := range updates {
		groups = append(groups, name)
	}
	s.eventBus.Publish(Event{
		Type:    EventClusterScaled,
		Payload: map[string]interface{}{"cluster": clusterName, "host_groups": groups},
	})
	return nil
}

// AddHost assigns a single host to a host group in an existing cluster.
func (s *TopologyService) AddHost(ctx context.Context, clusterName, hostGroupName, host string) error {
	topo, err := s.Cluster(clusterName)
	if err != nil {
		return err
	}
	if err := topo.AddHost(hostGroupName, host); err != nil {
		return err
	}
	if err := s.store.SaveTopology(ctx, snapshotOf(topo)); err != nil {
		return fmt.Errorf("failed to persist cluster %s: %w", clusterName, err)
	}

	s.eventBus.Publish(Event{
		Type: EventHostAdded,
		Payload: map[string]string{
			"cluster":    clusterName,
			"host_group": hostGroupName,
			"host":       topology.NormalizeHostName(host),
		},
	})
	return nil
}

// RemoveHost removes a host from whichever group currently holds it.
func (s *TopologyService) RemoveHost(ctx context.Context, clusterName, host string) error {
	topo, err := s.Cluster(clusterName)
	if err != nil {
		return err
	}
	topo.RemoveHost(host)
	if err := s.store.SaveTopology(ctx, snapshotOf(topo)); err != nil {
		return fmt.Errorf("failed to persist cluster %s: %w", clusterName, err)
	}

	s.eventBus.Publish(Event{
		Type: EventHostRemoved,
		Payload: map[string]string{
			"cluster": clusterName,
			"host":    topology.NormalizeHostName(host),
		},
	})
	return nil
}

// DeleteCluster removes a cluster from the live set and from storage.
func (s *TopologyService) DeleteCluster(ctx context.Context, clusterName string) error {
	s.mu.Lock()
	_, ok := s.clusters[clusterName]
	delete(s.clusters, clusterName)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("cluster %s not found", clusterName)
	}
	if err := s.store.DeleteTopology(ctx, clusterName); err != nil {
		return fmt.Errorf("failed to delete cluster %s: %w", clusterName, err)
	}

	s.eventBus.Publish(Event{
		Type:    EventClusterDeleted,
		Payload: map[string]string{"cluster": clusterName},
	})
	return nil
}

// InstallHost dispatches an install request for one assigned host.
func (s *TopologyService) InstallHost(ctx context.Context, clusterName, host string, skipInstallTasks, skipFailure bool) (*topology.RequestStatus, error) {
	topo, err := s.Cluster(clusterName)
	if err != nil {
		return nil, err
	}
	status, err := topo.InstallHost(ctx, s.orchestrator, host, skipInstallTasks, skipFailure)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{Type: EventProvisionDispatched, Payload: status})
	return status, nil
}

// StartHost dispatches a start request for one assigned host.
func (s *TopologyService) StartHost(ctx context.Context, clusterName, host string, skipFailure bool) (*topology.RequestStatus, error) {
	topo, err := s.Cluster(clusterName)
	if err != nil {
		return nil, err
	}
	status, err := topo.StartHost(ctx, s.orchestrator, host, skipFailure)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{Type: EventProvisionDispatched, Payload: status})
	return status, nil
}

// RestoreClusters rebuilds live topologies from persisted snapshots. Clusters
// whose blueprint is not registered are logged and skipped rather than
// failing the whole restore.
func (s *TopologyService) RestoreClusters(ctx context.Context) error {
	names, err := s.store.ListClusters(ctx)
	if err != nil {
		return fmt.Errorf("failed to list persisted clusters: %w", err)
	}

	for _, name := range names {
		snapshot, err := s.store.GetTopology(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load cluster %s: %w", name, err)
		}
		if snapshot == nil {
			continue
		}
		if err := s.restoreCluster(snapshot); err != nil {
			log.Printf("Skipping persisted cluster %s: %v", name, err)
		}
	}
	return nil
}

func (s *TopologyService) restoreCluster(snapshot *repository.TopologySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clusters[snapshot.ClusterName]; ok {
		return nil
	}
	blueprint, ok := s.blueprints[snapshot.BlueprintName]
	if !ok {
		return fmt.Errorf("blueprint %s not registered", snapshot.BlueprintName)
	}

	hostGroups := make(map[string]*topology.HostGroupInfo, len(snapshot.HostGroups))
	for _, groupSnapshot := range snapshot.HostGroups {
		group := topology.NewHostGroupInfo(groupSnapshot.Name)
		for _, host := range groupSnapshot.Hosts {
			group.AddHost(host)
			if rack, ok := groupSnapshot.Racks[host]; ok {
				group.SetRackInfo(host, rack)
			}
		}
		if len(groupSnapshot.Hosts) == 0 {
			group.SetRequestedCount(groupSnapshot.RequestedCount)
		}
		hostGroups[groupSnapshot.Name] = group
	}

	topo, err := topology.NewClusterTopologyFromExisting(s.stack, &topology.ProvisionRequest{
		ClusterName:   snapshot.ClusterName,
		Blueprint:     blueprint,
		Configuration: domain.NewConfiguration(snapshot.Configuration, nil, nil),
		HostGroups:    hostGroups,
	})
	if err != nil {
		return err
	}

	resolved, err := s.resolveComponents(blueprint)
	if err != nil {
		return err
	}
	restored := topo.WithComponents(resolved)

	// The configuration chain was rooted before components were attached, so
	// the stack-defaults root was computed against an empty service set.
	// Re-link it now that the services are known.
	restored.Blueprint().Configuration().SetParent(s.stack.DefaultConfiguration(restored.Services()))
	s.clusters[snapshot.ClusterName] = restored

	log.Printf("Restored cluster %s from snapshot (%d host group(s))", snapshot.ClusterName, len(snapshot.HostGroups))
	return nil
}

// resolveComponents maps every blueprint component onto the stack services
// that define it. A component no stack service defines is an error: the
// blueprint cannot be provisioned against this stack.
func (s *TopologyService) resolveComponents(blueprint *domain.Blueprint) (map[string][]domain.ResolvedComponent, error) {
	resolved := make(map[string][]domain.ResolvedComponent)
	for groupName, hostGroup := range blueprint.HostGroups() {
		for _, component := range hostGroup.Components {
			services := s.stack.ServicesForComponent(component.Name)
			if len(services) == 0 {
				return nil, fmt.Errorf("component %s in host group %s is not defined by any stack service", component.Name, groupName)
			}
			for _, stackService := range services {
				resolved[groupName] = append(resolved[groupName], domain.ResolvedComponent{
					Stack:       stackService.Stack,
					ServiceName: stackService.ServiceName,
					Name:        component.Name,
					Master:      s.stack.IsMasterComponent(component.Name),
				})
			}
		}
	}
	return resolved, nil
}

// snapshotOf captures a topology's current assignment state for persistence.
func snapshotOf(topo *topology.ClusterTopology) *repository.TopologySnapshot {
	stacks := make([]string, 0, len(topo.Stacks()))
	for _, stackID := range topo.Stacks() {
		stacks = append(stacks, stackID.String())
	}

	states := topo.HostGroupStates()
	groups := make([]repository.HostGroupSnapshot, 0, len(states))
	for _, state := range states {
		groups = append(groups, repository.HostGroupSnapshot{
			Name:           state.Name,
			RequestedCount: state.RequestedCount,
			Hosts:          state.Hosts,
			Racks:          state.Racks,
		})
	}

	return &repository.TopologySnapshot{
		ClusterName:   topo.ClusterName(),
		BlueprintName: topo.Blueprint().Name(),
		Stacks:        stacks,
		Configuration: topo.Configuration().Properties(),
		HostGroups:    groups,
	}
}
