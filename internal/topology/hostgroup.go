package topology

import (
	"sort"
	"strings"

	"clusterforge/internal/domain"
)

// NormalizeHostName lowercases and trims a hostname. All host bookkeeping in
// the engine uses normalized names; case differences are ignored.
func NormalizeHostName(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}

// HostGroupInfo is the mutable record of one host group's desired host count
// and the concrete hostnames assigned to it, plus per-host rack placement.
// A topology retains an entry for every host group ever registered against it.
type HostGroupInfo struct {
	name           string
	requestedCount int
	hosts          map[string]struct{}
	racks          map[string]string
	configuration  *domain.Configuration
}

// NewHostGroupInfo creates an empty assignment record for the named group.
func NewHostGroupInfo(name string) *HostGroupInfo {
	return &HostGroupInfo{
		name:          name,
		hosts:         make(map[string]struct{}),
		racks:         make(map[string]string),
		configuration: domain.EmptyConfiguration(),
	}
}

// Name returns the host group name.
func (g *HostGroupInfo) Name() string {
	return g.name
}

// AddHost inserts a hostname into the group. Adding a host that is already a
// member is a no-op; the bool reports whether the set changed.
func (g *HostGroupInfo) AddHost(host string) bool {
	normalized := NormalizeHostName(host)
	if _, ok := g.hosts[normalized]; ok {
		return false
	}
	g.hosts[normalized] = struct{}{}
	return true
}

// AddHosts inserts multiple hostnames.
func (g *HostGroupInfo) AddHosts(hosts []string) {
	for _, host := range hosts {
		g.AddHost(host)
	}
}

// RemoveHost removes a hostname; the bool reports whether it was a member.
func (g *HostGroupInfo) RemoveHost(host string) bool {
	normalized := NormalizeHostName(host)
	if _, ok := g.hosts[normalized]; !ok {
		return false
	}
	delete(g.hosts, normalized)
	delete(g.racks, normalized)
	return true
}

// ContainsHost reports whether the group holds the (normalized) hostname.
func (g *HostGroupInfo) ContainsHost(host string) bool {
	_, ok := g.hosts[NormalizeHostName(host)]
	return ok
}

// Hosts returns the assigned hostnames, sorted.
func (g *HostGroupInfo) Hosts() []string {
	hosts := make([]string, 0, len(g.hosts))
	for host := range g.hosts {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// HostCount returns the number of assigned hosts.
func (g *HostGroupInfo) HostCount() int {
	return len(g.hosts)
}

// RequestedHostCount returns the explicitly requested count, falling back to
// the number of concretely assigned hosts when no count was requested.
func (g *HostGroupInfo) RequestedHostCount() int {
	if g.requestedCount > 0 {
		return g.requestedCount
	}
	return len(g.hosts)
}

// SetRequestedCount records the desired host count for scale-by-count
// requests.
func (g *HostGroupInfo) SetRequestedCount(count int) {
	if count < 0 {
		count = 0
	}
	g.requestedCount = count
}

// SetRackInfo records the rack identifier for a host. Empty racks are
// ignored.
func (g *HostGroupInfo) SetRackInfo(host, rack string) {
	if rack == "" {
		return
	}
	g.racks[NormalizeHostName(host)] = rack
}

// RackInfo returns the per-host rack identifiers.
func (g *HostGroupInfo) RackInfo() map[string]string {
	return g.racks
}

// Configuration returns the group-scoped configuration node.
func (g *HostGroupInfo) Configuration() *domain.Configuration {
	return g.configuration
}

// SetConfiguration replaces the group-scoped configuration node.
func (g *HostGroupInfo) SetConfiguration(configuration *domain.Configuration) {
	if configuration == nil {
		configuration = domain.EmptyConfiguration()
	}
	g.configuration = configuration
}
