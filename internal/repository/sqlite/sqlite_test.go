package sqlite

import (
	"context"
	"testing"

	"clusterforge/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSnapshot() *repository.TopologySnapshot {
	return &repository.TopologySnapshot{
		ClusterName:   "prod",
		BlueprintName: "hdfs-ha",
		Stacks:        []string{"HDP-3.0"},
		Configuration: map[string]map[string]string{
			"hdfs-site": {"dfs.replication": "3"},
		},
		HostGroups: []repository.HostGroupSnapshot{
			{
				Name:  "master",
				Hosts: []string{"nn1.example.com", "nn2.example.com"},
				Racks: map[string]string{"nn1.example.com": "/dc1/rack1"},
			},
			{
				Name:           "worker",
				RequestedCount: 3,
			},
		},
	}
}

func TestSaveAndGetTopology(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveTopology(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("failed to save topology: %v", err)
	}

	got, err := store.GetTopology(ctx, "prod")
	if err != nil {
		t.Fatalf("failed to load topology: %v", err)
	}
	if got == nil {
		t.Fatal("expected a snapshot, got nil")
	}
	if got.ClusterName != "prod" || got.BlueprintName != "hdfs-ha" {
		t.Errorf("unexpected identity: %s / %s", got.ClusterName, got.BlueprintName)
	}
	if got.Configuration["hdfs-site"]["dfs.replication"] != "3" {
		t.Error("expected configuration round-tripped")
	}
	if len(got.HostGroups) != 2 {
		t.Fatalf("expected 2 host groups, got %d", len(got.HostGroups))
	}

	master := got.HostGroups[0]
	if master.Name != "master" {
		t.Fatalf("expected master first, got %s", master.Name)
	}
	if len(master.Hosts) != 2 || master.Hosts[0] != "nn1.example.com" {
		t.Errorf("unexpected master hosts: %v", master.Hosts)
	}
	if master.Racks["nn1.example.com"] != "/dc1/rack1" {
		t.Error("expected rack info round-tripped")
	}

	worker := got.HostGroups[1]
	if worker.RequestedCount != 3 {
		t.Errorf("expected requested count 3, got %d", worker.RequestedCount)
	}
	if len(worker.Hosts) != 0 {
		t.Errorf("expected no worker hosts, got %v", worker.Hosts)
	}
}

func TestGetTopologyUnknownCluster(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetTopology(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown cluster, got %+v", got)
	}
}

func TestSaveTopologyReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveTopology(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("failed to save topology: %v", err)
	}

	updated := sampleSnapshot()
	updated.HostGroups[0].Hosts = []string{"nn1.example.com"}
	updated.HostGroups[1].Hosts = []string{"dn1.example.com"}
	if err := store.SaveTopology(ctx, updated); err != nil {
		t.Fatalf("failed to replace topology: %v", err)
	}

	got, err := store.GetTopology(ctx, "prod")
	if err != nil {
		t.Fatalf("failed to load topology: %v", err)
	}
	if len(got.HostGroups[0].Hosts) != 1 {
		t.Errorf("expected master hosts replaced, got %v", got.HostGroups[0].Hosts)
	}
	if len(got.HostGroups[1].Hosts) != 1 || got.HostGroups[1].Hosts[0] != "dn1.example.com" {
		t.Errorf("expected worker hosts replaced, got %v", got.HostGroups[1].Hosts)
	}
}

func TestListClusters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"staging", "prod", "dev"} {
		snapshot := sampleSnapshot()
		snapshot.ClusterName = name
		if err := store.SaveTopology(ctx, snapshot); err != nil {
			t.Fatalf("failed to save %s: %v", name, err)
		}
	}

	names, err := store.ListClusters(ctx)
	if err != nil {
		t.Fatalf("failed to list clusters: %v", err)
	}
	if len(names) != 3 || names[0] != "dev" || names[1] != "prod" || names[2] != "staging" {
		t.Errorf("unexpected cluster list: %v", names)
	}
}

func TestDeleteTopology(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveTopology(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("failed to save topology: %v", err)
	}
	if err := store.DeleteTopology(ctx, "prod"); err != nil {
		t.Fatalf("failed to delete topology: %v", err)
	}

	got, err := store.GetTopology(ctx, "prod")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected cluster gone after delete")
	}
}
