package topology

import "regexp"

const (
	componentNameNode = "NAMENODE"
	configHDFSSite    = "hdfs-site"
	configHadoopEnv   = "hadoop-env"

	propNameServices         = "dfs.nameservices"
	propInternalNameServices = "dfs.internal.nameservices"
	propHAInitialActive      = "dfs_ha_initial_namenode_active"
	propHAInitialStandby     = "dfs_ha_initial_namenode_standby"
)

// hostGroupPlaceholder matches tokens like %HOSTGROUP::master_1% that are
// substituted with concrete hostnames later in provisioning.
var hostGroupPlaceholder = regexp.MustCompile(`^%HOSTGROUP::\S+%$`)

// ValidatePlacement enforces cross-cutting placement invariants that need
// full-topology visibility. It is run on provisioning-request construction
// and may be invoked again by callers after mutations; it never mutates
// state.
//
// The canonical check: with NameNode HA enabled, exactly two hosts must run
// NAMENODE, and any configured initial-role hostnames must resolve to those
// hosts or be host-group placeholders.
func (t *ClusterTopology) ValidatePlacement() error {
	fullProperties := t.configuration.GetFullProperties()
	if !isNameNodeHAEnabled(fullProperties) {
		return nil
	}

	nameNodeHosts := t.HostAssignmentsForComponent(componentNameNode)
	if len(nameNodeHosts) != 2 {
		return &InvalidTopologyError{
			Component: componentNameNode,
			Hosts:     nameNodeHosts,
			Reason:    "NAMENODE HA requires exactly 2 hosts running NAMENODE",
		}
	}

	hadoopEnv := fullProperties[configHadoopEnv]
	active, hasActive := hadoopEnv[propHAInitialActive]
	standby, hasStandby := hadoopEnv[propHAInitialStandby]
	if !hasActive || !hasStandby {
		return nil
	}

	if !isValidInitialRoleHost(active, nameNodeHosts) || !isValidInitialRoleHost(standby, nameNodeHosts) {
		return &ConfigMismatchError{
			ConfigType:    configHadoopEnv,
			Properties:    []string{propHAInitialActive, propHAInitialStandby},
			ExpectedHosts: nameNodeHosts,
		}
	}
	return nil
}

// isNameNodeHAEnabled reports whether the merged configuration declares HDFS
// nameservices, the marker for NameNode HA.
func isNameNodeHAEnabled(fullProperties map[string]map[string]string) bool {
	hdfsSite, ok := fullProperties[configHDFSSite]
	if !ok {
		return false
	}
	_, hasNameServices := hdfsSite[propNameServices]
	_, hasInternal := hdfsSite[propInternalNameServices]
	return hasNameServices || hasInternal
}

// isValidInitialRoleHost accepts a host-group placeholder token or a literal
// match against one of the assigned hosts.
func isValidInitialRoleHost(value string, assignedHosts []string) bool {
	if hostGroupPlaceholder.MatchString(value) {
		return true
	}
	normalized := NormalizeHostName(value)
	for _, host := range assignedHosts {
		if host == normalized {
			return true
		}
	}
	return false
}
