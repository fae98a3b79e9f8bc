package stack

import (
	"testing"
)

const testMetadata = `
stacks:
  - name: HDP
    version: "3.0"
    services:
      - name: HDFS
        config_types: [hdfs-site, hadoop-env, core-site]
        components:
          - name: NAMENODE
            master: true
          - name: DATANODE
        defaults:
          hdfs-site:
            dfs.replication: "3"
      - name: ZOOKEEPER
        config_types: [zoo.cfg]
        components:
          - name: ZOOKEEPER_SERVER
            master: true
cluster_settings:
  - command_retry_enabled
  - commands_to_retry
`

func parseTestStack(t *testing.T) *Static {
	t.Helper()
	s, err := Parse([]byte(testMetadata))
	if err != nil {
		t.Fatalf("failed to parse metadata: %v", err)
	}
	return s
}

func TestServiceForConfigType(t *testing.T) {
	s := parseTestStack(t)

	service, err := s.ServiceForConfigType("hdfs-site")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service != "HDFS" {
		t.Errorf("expected HDFS, got %s", service)
	}

	if _, err := s.ServiceForConfigType("no-such-type"); err == nil {
		t.Error("expected an error for an unknown config type")
	}
}

func TestServicesForComponent(t *testing.T) {
	s := parseTestStack(t)

	services := s.ServicesForComponent("NAMENODE")
	if len(services) != 1 {
		t.Fatalf("expected one service, got %d", len(services))
	}
	if services[0].ServiceName != "HDFS" || services[0].Stack.Name != "HDP" {
		t.Errorf("unexpected service: %+v", services[0])
	}

	if got := s.ServicesForComponent("NO_SUCH_COMPONENT"); len(got) != 0 {
		t.Errorf("expected no services, got %v", got)
	}
}

func TestIsMasterComponent(t *testing.T) {
	s := parseTestStack(t)

	if !s.IsMasterComponent("NAMENODE") {
		t.Error("expected NAMENODE to be a master component")
	}
	if s.IsMasterComponent("DATANODE") {
		t.Error("expected DATANODE not to be a master component")
	}
}

func TestClusterSettingPropertyNames(t *testing.T) {
	s := parseTestStack(t)
	names := s.ClusterSettingPropertyNames()
	if len(names) != 2 || names[0] != "command_retry_enabled" {
		t.Errorf("unexpected cluster setting names: %v", names)
	}
}

func TestDefaultConfiguration(t *testing.T) {
	s := parseTestStack(t)

	configuration := s.DefaultConfiguration([]string{"HDFS"})
	if value, _ := configuration.GetProperty("hdfs-site", "dfs.replication"); value != "3" {
		t.Errorf("expected dfs.replication default, got %q", value)
	}

	empty := s.DefaultConfiguration([]string{"ZOOKEEPER"})
	if _, ok := empty.GetProperty("hdfs-site", "dfs.replication"); ok {
		t.Error("expected no HDFS defaults for ZOOKEEPER-only topology")
	}
}
