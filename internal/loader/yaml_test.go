package loader

import (
	"testing"

	"clusterforge/internal/domain"
)

const testBlueprintYAML = `
name: hdfs-ha
stacks: [HDP-3.0]
configurations:
  cluster-env:
    command_retry_enabled: "true"
host_groups:
  - name: master
    cardinality: "2"
    components:
      - name: NAMENODE
      - name: ZKFC
        provision_action: START_ONLY
    configurations:
      hdfs-site:
        dfs.namenode.name.dir: /data/nn
  - name: worker
    components:
      - name: DATANODE
settings:
  recovery_settings:
    - recovery_enabled: "true"
`

func TestParseBlueprint(t *testing.T) {
	blueprint, err := ParseBlueprint([]byte(testBlueprintYAML))
	if err != nil {
		t.Fatalf("failed to parse blueprint: %v", err)
	}

	if blueprint.Name() != "hdfs-ha" {
		t.Errorf("expected name hdfs-ha, got %s", blueprint.Name())
	}
	if len(blueprint.Stacks()) != 1 || blueprint.Stacks()[0] != (domain.StackID{Name: "HDP", Version: "3.0"}) {
		t.Errorf("unexpected stacks: %v", blueprint.Stacks())
	}

	master := blueprint.HostGroup("master")
	if master == nil {
		t.Fatal("expected master host group")
	}
	if master.Cardinality != "2" {
		t.Errorf("expected cardinality 2, got %s", master.Cardinality)
	}
	if len(master.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(master.Components))
	}
	if master.Components[1].EffectiveProvision() != domain.ProvisionStartOnly {
		t.Errorf("expected ZKFC to be START_ONLY, got %s", master.Components[1].EffectiveProvision())
	}
	if value, _ := master.Configuration.GetProperty("hdfs-site", "dfs.namenode.name.dir"); value != "/data/nn" {
		t.Errorf("expected group configuration parsed, got %q", value)
	}

	if value, _ := blueprint.Configuration().GetProperty("cluster-env", "command_retry_enabled"); value != "true" {
		t.Error("expected blueprint-scope configuration parsed")
	}
	if len(blueprint.Setting().Properties()["recovery_settings"]) != 1 {
		t.Error("expected settings groups parsed")
	}
}

func TestParseBlueprintErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "host_groups:\n  - name: a\n"},
		{"no host groups", "name: bp\n"},
		{"unnamed host group", "name: bp\nhost_groups:\n  - cardinality: \"1\"\n"},
		{"duplicate host group", "name: bp\nhost_groups:\n  - name: a\n  - name: a\n"},
		{"invalid yaml", "name: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBlueprint([]byte(tt.yaml)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

const testRequestYAML = `
cluster_name: prod
blueprint: hdfs-ha
configurations:
  hadoop-env:
    dfs_ha_initial_namenode_active: nn1.example.com
host_groups:
  - name: master
    hosts:
      - fqdn: NN1.Example.Com
        rack: /dc1/rack1
      - fqdn: nn2.example.com
  - name: worker
    host_count: 3
`

func TestParseProvisionRequest(t *testing.T) {
	doc, err := ParseProvisionRequest([]byte(testRequestYAML))
	if err != nil {
		t.Fatalf("failed to parse request: %v", err)
	}

	if doc.ClusterName != "prod" || doc.BlueprintName != "hdfs-ha" {
		t.Errorf("unexpected identity: %s / %s", doc.ClusterName, doc.BlueprintName)
	}

	master := doc.HostGroups["master"]
	if master == nil {
		t.Fatal("expected master group")
	}
	if !master.ContainsHost("nn1.example.com") {
		t.Error("expected normalized hostname in master group")
	}
	if master.RackInfo()["nn1.example.com"] != "/dc1/rack1" {
		t.Error("expected rack info recorded")
	}

	worker := doc.HostGroups["worker"]
	if worker == nil {
		t.Fatal("expected worker group")
	}
	if worker.RequestedHostCount() != 3 {
		t.Errorf("expected requested count 3, got %d", worker.RequestedHostCount())
	}

	if value, _ := doc.Configuration.GetProperty("hadoop-env", "dfs_ha_initial_namenode_active"); value != "nn1.example.com" {
		t.Error("expected cluster-scope configuration parsed")
	}
}

func TestParseProvisionRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing cluster name", "blueprint: bp\n"},
		{"missing blueprint", "cluster_name: c\n"},
		{"host without fqdn", "cluster_name: c\nblueprint: bp\nhost_groups:\n  - name: a\n    hosts:\n      - rack: /r\n"},
		{"hosts and count together", "cluster_name: c\nblueprint: bp\nhost_groups:\n  - name: a\n    host_count: 2\n    hosts:\n      - fqdn: h1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseProvisionRequest([]byte(tt.yaml)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
