package topology

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"clusterforge/internal/domain"
)

// SkipAllComponents is the sentinel the orchestrator understands as "skip
// install tasks for every component on the host".
const SkipAllComponents = "ALL"

// hostGroupRegistry owns the mutable host-group assignment state. One
// exclusive lock guards the forward map and the derived host-to-group lookup
// so the "host belongs to at most one group" invariant holds atomically.
// WithComponents copies share the registry, so scale-out is visible through
// every derived topology value.
type hostGroupRegistry struct {
	mu     sync.Mutex
	groups map[string]*HostGroupInfo
}

func newHostGroupRegistry() *hostGroupRegistry {
	return &hostGroupRegistry{groups: make(map[string]*HostGroupInfo)}
}

// groupForHostLocked resolves the group currently holding a host. Callers
// hold r.mu. Group count is small relative to host count, so a scan is fine.
func (r *hostGroupRegistry) groupForHostLocked(host string) string {
	normalized := NormalizeHostName(host)
	for name, group := range r.groups {
		if group.ContainsHost(normalized) {
			return name
		}
	}
	return ""
}

// ClusterTopology is the single source of truth for which component runs
// where and what the effective configuration is for a given scope. The
// host-group assignment state mutates in place over the topology's lifetime;
// the resolved-component mapping is copy-on-write.
type ClusterTopology struct {
	clusterName   string
	blueprint     *domain.Blueprint
	configuration *domain.Configuration
	setting       *domain.Setting
	stacks        []domain.StackID
	stack         StackDefinition
	registry      *hostGroupRegistry
	components    map[string]map[domain.ResolvedComponent]struct{}
}

// NewClusterTopology builds a topology from a fresh provisioning request.
// It wires the configuration chain (host group -> cluster -> blueprint ->
// stack defaults), rejects duplicate and unknown host groups before touching
// any state, migrates legacy cluster-env settings, and runs the placement
// validator.
func NewClusterTopology(stack StackDefinition, request *ProvisionRequest, resolved map[string][]domain.ResolvedComponent) (*ClusterTopology, error) {
	t, err := newTopology(stack, request, toComponentSets(resolved))
	if err != nil {
		return nil, err
	}
	if err := t.ValidatePlacement(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewClusterTopologyFromExisting rebuilds a topology from previously
// persisted state. Component resolution is supplied later via WithComponents;
// the placement validator is not re-run against state that already provisioned
// successfully.
func NewClusterTopologyFromExisting(stack StackDefinition, request *ProvisionRequest) (*ClusterTopology, error) {
	return newTopology(stack, request, make(map[string]map[domain.ResolvedComponent]struct{}))
}

func newTopology(stack StackDefinition, request *ProvisionRequest, components map[string]map[domain.ResolvedComponent]struct{}) (*ClusterTopology, error) {
	configuration := request.Configuration
	if configuration == nil {
		configuration = domain.EmptyConfiguration()
	}

	t := &ClusterTopology{
		clusterName:   request.ClusterName,
		blueprint:     request.Blueprint,
		configuration: configuration,
		setting:       request.Blueprint.Setting(),
		stacks:        request.Blueprint.Stacks(),
		stack:         stack,
		registry:      newHostGroupRegistry(),
		components:    components,
	}

	// Chain the scopes: cluster overrides fall back to the blueprint scope,
	// which falls back to the stack defaults for the involved services.
	t.configuration.SetParent(t.blueprint.Configuration())
	t.blueprint.Configuration().SetParent(stack.DefaultConfiguration(t.Services()))

	// Validation and registration happen in one critical section so the
	// at-most-one-group-per-host invariant cannot be broken between them.
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	if err := t.checkForDuplicateHostsLocked(request.HostGroups); err != nil {
		return nil, err
	}
	if err := t.verifyHostGroupsInBlueprint(request.HostGroups); err != nil {
		return nil, err
	}
	t.registerHostGroupInfoLocked(request.HostGroups)

	migrateClusterEnv(t.configuration, t.setting, stack.ClusterSettingPropertyNames())
	return t, nil
}

// ClusterName returns the managed cluster's identifier.
func (t *ClusterTopology) ClusterName() string {
	return t.clusterName
}

// Blueprint returns the read-only cluster template.
func (t *ClusterTopology) Blueprint() *domain.Blueprint {
	return t.blueprint
}

// Configuration returns the cluster-scope configuration node.
func (t *ClusterTopology) Configuration() *domain.Configuration {
	return t.configuration
}

// Setting returns the blueprint settings groups, including migrated cluster
// settings.
func (t *ClusterTopology) Setting() *domain.Setting {
	return t.setting
}

// Stacks returns the active stack identifiers.
func (t *ClusterTopology) Stacks() []domain.StackID {
	return t.stacks
}

// Update applies an incremental scale-out request. Unlike construction it
// never creates new groups: every supplied group must already be registered.
// Validation is all-or-nothing; on error no assignment changes. The checks and
// the registration run under one registry lock, so concurrent updates cannot
// both claim the same host.
func (t *ClusterTopology) Update(updates map[string]*HostGroupInfo) error {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	if err := t.checkForDuplicateHostsLocked(updates); err != nil {
		return err
	}
	if err := t.verifyHostGroupsRegisteredLocked(updates); err != nil {
		return err
	}
	t.registerHostGroupInfoLocked(updates)
	return nil
}

// AddHost assigns a single host to a host group. Adding a host to the group
// it already belongs to is idempotent; adding it to a different group fails
// with ConflictingHostGroupError.
func (t *ClusterTopology) AddHost(hostGroupName, host string) error {
	if t.blueprint.HostGroup(hostGroupName) == nil {
		return &UnknownHostGroupError{HostGroups: []string{hostGroupName}}
	}

	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	if assigned := t.registry.groupForHostLocked(host); assigned != "" && assigned != hostGroupName {
		return &ConflictingHostGroupError{
			Host:      NormalizeHostName(host),
			Requested: hostGroupName,
			Assigned:  assigned,
		}
	}

	group, ok := t.registry.groups[hostGroupName]
	if !ok {
		return &UnknownHostGroupError{HostGroups: []string{hostGroupName}}
	}
	if group.AddHost(host) {
		log.Printf("Added host %s to host group %s", NormalizeHostName(host), hostGroupName)
	}
	return nil
}

// RemoveHost removes the host from whichever group currently holds it. An
// unassigned host is a no-op, not an error.
func (t *ClusterTopology) RemoveHost(host string) {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	for name, group := range t.registry.groups {
		if group.RemoveHost(host) {
			log.Printf("Removed host %s from host group %s", NormalizeHostName(host), name)
		}
	}
}

// HostGroupForHost returns the name of the group holding the host, or ""
// when the host is unassigned. The duplicate-host invariant guarantees at
// most one group matches.
func (t *ClusterTopology) HostGroupForHost(host string) string {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	return t.registry.groupForHostLocked(host)
}

// HostNames enumerates every assigned hostname across all groups, sorted.
func (t *ClusterTopology) HostNames() []string {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	var hosts []string
	for _, group := range t.registry.groups {
		hosts = append(hosts, group.Hosts()...)
	}
	sort.Strings(hosts)
	return hosts
}

// RegisteredHostGroups returns the names of every group ever registered with
// this topology, sorted.
func (t *ClusterTopology) RegisteredHostGroups() []string {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	names := make([]string, 0, len(t.registry.groups))
	for name := range t.registry.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HostGroupState is a point-in-time copy of one group's assignment record,
// safe to use outside the registry lock.
type HostGroupState struct {
	Name           string            `json:"name"`
	RequestedCount int               `json:"requested_count"`
	Hosts          []string          `json:"hosts"`
	Racks          map[string]string `json:"racks,omitempty"`
}

// HostGroupStates snapshots every registered group under the registry lock.
func (t *ClusterTopology) HostGroupStates() []HostGroupState {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	states := make([]HostGroupState, 0, len(t.registry.groups))
	for _, group := range t.registry.groups {
		racks := make(map[string]string, len(group.RackInfo()))
		for host, rack := range group.RackInfo() {
			racks[host] = rack
		}
		states = append(states, HostGroupState{
			Name:           group.Name(),
			RequestedCount: group.RequestedHostCount(),
			Hosts:          group.Hosts(),
			Racks:          racks,
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}

// HostGroupConfiguration returns the registered group's configuration node,
// or nil for an unregistered group.
func (t *ClusterTopology) HostGroupConfiguration(name string) *domain.Configuration {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	group, ok := t.registry.groups[name]
	if !ok {
		return nil
	}
	return group.Configuration()
}

// ComponentsInHostGroup returns the resolved components placed in the named
// group, sorted. A group with no resolved components yields an empty slice,
// never an error.
func (t *ClusterTopology) ComponentsInHostGroup(name string) []domain.ResolvedComponent {
	return sortedComponents(t.components[name])
}

// Components returns every resolved component across all groups, sorted.
func (t *ClusterTopology) Components() []domain.ResolvedComponent {
	all := make(map[domain.ResolvedComponent]struct{})
	for _, set := range t.components {
		for component := range set {
			all[component] = struct{}{}
		}
	}
	return sortedComponents(all)
}

// HostGroupsForComponent returns the names of the groups a component is
// placed in, sorted.
func (t *ClusterTopology) HostGroupsForComponent(componentName string) []string {
	var names []string
	for name, set := range t.components {
		for component := range set {
			if component.Name == componentName {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// HostAssignmentsForComponent returns the hosts a component lands on: the
// union of assigned hosts across every group that places it.
func (t *ClusterTopology) HostAssignmentsForComponent(componentName string) []string {
	groupNames := t.HostGroupsForComponent(componentName)

	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	var hosts []string
	for _, groupName := range groupNames {
		if group, ok := t.registry.groups[groupName]; ok {
			hosts = append(hosts, group.Hosts()...)
		} else {
			log.Printf("Host group %s not registered when collecting hosts for component %s", groupName, componentName)
		}
	}
	sort.Strings(hosts)
	return hosts
}

// ContainsMasterComponent reports whether the named group holds at least one
// master component.
func (t *ClusterTopology) ContainsMasterComponent(hostGroupName string) bool {
	for component := range t.components[hostGroupName] {
		if component.Master {
			return true
		}
	}
	return false
}

// Services returns the distinct service names across all resolved components,
// sorted.
func (t *ClusterTopology) Services() []string {
	seen := make(map[string]struct{})
	for _, set := range t.components {
		for component := range set {
			seen[component.ServiceName] = struct{}{}
		}
	}
	services := make([]string, 0, len(seen))
	for service := range seen {
		services = append(services, service)
	}
	sort.Strings(services)
	return services
}

// IsValidConfigType reports whether a config type belongs to a service this
// topology actually runs. cluster-env and global are always valid.
func (t *ClusterTopology) IsValidConfigType(configType string) bool {
	if configType == domain.ConfigTypeClusterEnv || configType == "global" {
		return true
	}
	service, err := t.stack.ServiceForConfigType(configType)
	if err != nil {
		return false
	}
	for _, s := range t.Services() {
		if s == service {
			return true
		}
	}
	return false
}

// WithAdditionalComponents derives a topology with the delta unioned into the
// component map. An empty delta returns the receiver unchanged; otherwise the
// original topology is never mutated.
func (t *ClusterTopology) WithAdditionalComponents(additional map[string][]domain.ResolvedComponent) *ClusterTopology {
	empty := true
	for _, components := range additional {
		if len(components) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return t
	}

	merged := cloneComponentSets(t.components)
	for groupName, components := range additional {
		set, ok := merged[groupName]
		if !ok {
			set = make(map[domain.ResolvedComponent]struct{})
			merged[groupName] = set
		}
		for _, component := range components {
			set[component] = struct{}{}
		}
	}
	return t.withComponentSets(merged)
}

// WithComponents derives a topology with the component map replaced outright.
// Blueprint, configuration, and host assignment state are shared with the
// receiver.
func (t *ClusterTopology) WithComponents(resolved map[string][]domain.ResolvedComponent) *ClusterTopology {
	return t.withComponentSets(toComponentSets(resolved))
}

func (t *ClusterTopology) withComponentSets(components map[string]map[domain.ResolvedComponent]struct{}) *ClusterTopology {
	clone := *t
	clone.components = components
	return &clone
}

// InstallHost asks the orchestrator to install the host's components,
// partitioned by the blueprint's provisioning actions. START_ONLY components
// are skipped at install time; skipInstallTasks skips everything.
func (t *ClusterTopology) InstallHost(ctx context.Context, orchestrator Orchestrator, host string, skipInstallTasks, skipFailure bool) (*RequestStatus, error) {
	hostGroup, err := t.blueprintGroupForHost(host)
	if err != nil {
		return nil, err
	}

	var skip []string
	if skipInstallTasks {
		skip = []string{SkipAllComponents}
	} else {
		skip = hostGroup.ComponentNames(domain.ProvisionStartOnly)
	}
	dontSkip := hostGroup.ComponentNames(domain.ProvisionInstallOnly, domain.ProvisionInstallAndStart)

	return orchestrator.InstallHost(ctx, NormalizeHostName(host), t.clusterName, skip, dontSkip, skipFailure)
}

// StartHost asks the orchestrator to start the host's components, skipping
// those marked INSTALL_ONLY.
func (t *ClusterTopology) StartHost(ctx context.Context, orchestrator Orchestrator, host string, skipFailure bool) (*RequestStatus, error) {
	hostGroup, err := t.blueprintGroupForHost(host)
	if err != nil {
		return nil, err
	}

	installOnly := hostGroup.ComponentNames(domain.ProvisionInstallOnly)
	return orchestrator.StartHost(ctx, NormalizeHostName(host), t.clusterName, installOnly, skipFailure)
}

func (t *ClusterTopology) blueprintGroupForHost(host string) (*domain.HostGroup, error) {
	groupName := t.HostGroupForHost(host)
	if groupName == "" {
		return nil, fmt.Errorf("host %q is not assigned to any host group", NormalizeHostName(host))
	}
	hostGroup := t.blueprint.HostGroup(groupName)
	if hostGroup == nil {
		return nil, &UnknownHostGroupError{HostGroups: []string{groupName}}
	}
	return hostGroup, nil
}

// registerHostGroupInfoLocked merges validated assignment records into the
// registry. New groups are adopted wholesale and their configuration is
// re-linked into the inheritance chain; existing groups either gain the
// supplied hosts or have the supplied request count added, never both.
// Callers hold registry.mu.
func (t *ClusterTopology) registerHostGroupInfoLocked(requested map[string]*HostGroupInfo) {
	log.Printf("Registering host group information for %d host group(s)", len(requested))

	for _, name := range sortedKeys(requested) {
		requestedGroup := requested[name]
		baseGroup := t.blueprint.HostGroup(name)

		current, ok := t.registry.groups[name]
		if !ok {
			baseConfig := baseGroup.Configuration
			if baseConfig == nil {
				baseConfig = domain.EmptyConfiguration()
			}
			// First registration: the parent of the group's own config is a
			// synthetic node carrying the blueprint group's properties,
			// chained onto the cluster-scope configuration.
			parent := domain.NewConfiguration(
				baseConfig.Properties(),
				baseConfig.Attributes(),
				t.configuration,
			)
			requestedGroup.Configuration().SetParent(parent)
			t.registry.groups[name] = requestedGroup
			continue
		}

		if requestedGroup.HostCount() > 0 {
			for _, host := range requestedGroup.Hosts() {
				if rack, ok := requestedGroup.RackInfo()[host]; ok {
					current.SetRackInfo(host, rack)
				}
				if current.AddHost(host) {
					log.Printf("Added host %s to host group %s", host, name)
				}
			}
		} else {
			current.SetRequestedCount(current.RequestedHostCount() + requestedGroup.RequestedHostCount())
		}
	}
}

// verifyHostGroupsInBlueprint rejects supplied groups the blueprint does not
// define, reporting the full unknown set.
func (t *ClusterTopology) verifyHostGroupsInBlueprint(requested map[string]*HostGroupInfo) error {
	var unknown []string
	for name := range requested {
		if t.blueprint.HostGroup(name) == nil {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &UnknownHostGroupError{HostGroups: unknown}
	}
	return nil
}

// verifyHostGroupsRegisteredLocked rejects supplied groups never registered
// with this topology. Updates must not silently create groups. Callers hold
// registry.mu.
func (t *ClusterTopology) verifyHostGroupsRegisteredLocked(requested map[string]*HostGroupInfo) error {
	var unknown []string
	for name := range requested {
		if _, ok := t.registry.groups[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &UnknownHostGroupError{HostGroups: unknown}
	}
	return nil
}

// checkForDuplicateHostsLocked rejects requests where a hostname appears in
// more than one supplied group, or is already registered in a different
// group. The full duplicate set is reported; partial reports are unhelpful
// for operator remediation. Callers hold registry.mu.
func (t *ClusterTopology) checkForDuplicateHostsLocked(requested map[string]*HostGroupInfo) error {
	seen := make(map[string]struct{})
	duplicates := make(map[string]struct{})
	for _, group := range requested {
		for _, host := range group.Hosts() {
			if _, ok := seen[host]; ok {
				duplicates[host] = struct{}{}
			}
			seen[host] = struct{}{}

			if existing := t.registry.groupForHostLocked(host); existing != "" {
				duplicates[host] = struct{}{}
			}
		}
	}

	if len(duplicates) > 0 {
		hosts := make([]string, 0, len(duplicates))
		for host := range duplicates {
			hosts = append(hosts, host)
		}
		sort.Strings(hosts)
		return &DuplicateHostsError{Hosts: hosts}
	}
	return nil
}

func toComponentSets(resolved map[string][]domain.ResolvedComponent) map[string]map[domain.ResolvedComponent]struct{} {
	sets := make(map[string]map[domain.ResolvedComponent]struct{}, len(resolved))
	for groupName, components := range resolved {
		set := make(map[domain.ResolvedComponent]struct{}, len(components))
		for _, component := range components {
			set[component] = struct{}{}
		}
		sets[groupName] = set
	}
	return sets
}

func cloneComponentSets(sets map[string]map[domain.ResolvedComponent]struct{}) map[string]map[domain.ResolvedComponent]struct{} {
	clone := make(map[string]map[domain.ResolvedComponent]struct{}, len(sets))
	for groupName, set := range sets {
		inner := make(map[domain.ResolvedComponent]struct{}, len(set))
		for component := range set {
			inner[component] = struct{}{}
		}
		clone[groupName] = inner
	}
	return clone
}

func sortedComponents(set map[domain.ResolvedComponent]struct{}) []domain.ResolvedComponent {
	components := make([]domain.ResolvedComponent, 0, len(set))
	for component := range set {
		components = append(components, component)
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i].String() < components[j].String()
	})
	return components
}

func sortedKeys(m map[string]*HostGroupInfo) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
