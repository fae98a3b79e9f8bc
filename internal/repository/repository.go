package repository

import "context"

// TopologySnapshot is the persisted view of a cluster topology: enough to
// rebuild the assignment state against a blueprint on restart.
type TopologySnapshot struct {
	ClusterName   string                       `json:"cluster_name"`
	BlueprintName string                       `json:"blueprint_name"`
	Stacks        []string                     `json:"stacks,omitempty"`
	Configuration map[string]map[string]string `json:"configuration,omitempty"`
	HostGroups    []HostGroupSnapshot          `json:"host_groups"`
}

// HostGroupSnapshot is one host group's persisted assignment record.
type HostGroupSnapshot struct {
	Name           string            `json:"name"`
	RequestedCount int               `json:"requested_count"`
	Hosts          []string          `json:"hosts"`
	Racks          map[string]string `json:"racks,omitempty"`
}

// Store defines topology snapshot persistence.
type Store interface {
	// SaveTopology creates or replaces the snapshot for a cluster.
	SaveTopology(ctx context.Context, snapshot *TopologySnapshot) error

	// GetTopology returns the snapshot for a cluster, or nil if none exists.
	GetTopology(ctx context.Context, clusterName string) (*TopologySnapshot, error)

	// ListClusters returns the names of all persisted clusters.
	ListClusters(ctx context.Context) ([]string, error)

	// DeleteTopology removes a cluster's snapshot.
	DeleteTopology(ctx context.Context, clusterName string) error

	// Close releases resources.
	Close() error
}
