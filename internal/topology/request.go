package topology

import "clusterforge/internal/domain"

// ProvisionRequest carries the inputs for building a topology for a fresh
// cluster: the blueprint, the cluster-scope configuration overrides, and the
// initial host group assignments.
type ProvisionRequest struct {
	ClusterName   string
	Blueprint     *domain.Blueprint
	Configuration *domain.Configuration
	HostGroups    map[string]*HostGroupInfo
}
