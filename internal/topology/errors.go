package topology

import (
	"fmt"
	"strings"
)

// UnknownHostGroupError indicates a referenced host group that is absent from
// the blueprint, or not yet registered with the topology, depending on the
// operation.
type UnknownHostGroupError struct {
	HostGroups []string
}

func (e *UnknownHostGroupError) Error() string {
	return fmt.Sprintf("unknown host group(s): %s; all request host groups must have a corresponding host group in the blueprint",
		strings.Join(e.HostGroups, ", "))
}

// DuplicateHostsError indicates hostnames that resolve to more than one host
// group. It always reports the full duplicate set, never just the first hit,
// so operators can fix a request in one pass.
type DuplicateHostsError struct {
	Hosts []string
}

func (e *DuplicateHostsError) Error() string {
	return fmt.Sprintf("the following hosts are mapped to multiple host groups: %s"+
		" (host names are lowercased; case differences are ignored)",
		strings.Join(e.Hosts, ", "))
}

// ConflictingHostGroupError indicates a single-host add that conflicts with
// the host's existing assignment to a different group.
type ConflictingHostGroupError struct {
	Host      string
	Requested string
	Assigned  string
}

func (e *ConflictingHostGroupError) Error() string {
	return fmt.Sprintf("cannot add host %q to host group %q: already associated with host group %q",
		e.Host, e.Requested, e.Assigned)
}

// InvalidTopologyError indicates a cross-cutting placement-invariant
// violation, e.g. a wrong host count for an HA component pair.
type InvalidTopologyError struct {
	Component string
	Hosts     []string
	Reason    string
}

func (e *InvalidTopologyError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("invalid topology: %s; component %s is assigned to %d host(s): %s",
			e.Reason, e.Component, len(e.Hosts), strings.Join(e.Hosts, ", "))
	}
	return "invalid topology: " + e.Reason
}

// ConfigMismatchError indicates configuration properties whose values do not
// match the hosts actually assigned by the topology.
type ConfigMismatchError struct {
	ConfigType    string
	Properties    []string
	ExpectedHosts []string
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("properties %s in %s are mapped incorrectly; expected one of hosts: %s",
		strings.Join(e.Properties, ", "), e.ConfigType, strings.Join(e.ExpectedHosts, ", "))
}
