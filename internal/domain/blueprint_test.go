package domain

import (
	"reflect"
	"testing"
)

func TestHostGroupComponentNames(t *testing.T) {
	group := &HostGroup{
		Name: "master",
		Components: []Component{
			{Name: "NAMENODE"},
			{Name: "DATANODE", Provision: ProvisionInstallOnly},
			{Name: "ZKFC", Provision: ProvisionStartOnly},
			{Name: "HDFS_CLIENT", Provision: ProvisionInstallAndStart},
		},
	}

	t.Run("no filter returns all", func(t *testing.T) {
		names := group.ComponentNames()
		expected := []string{"NAMENODE", "DATANODE", "ZKFC", "HDFS_CLIENT"}
		if !reflect.DeepEqual(expected, names) {
			t.Errorf("expected %v, got %v", expected, names)
		}
	})

	t.Run("filters by action", func(t *testing.T) {
		names := group.ComponentNames(ProvisionStartOnly)
		if !reflect.DeepEqual([]string{"ZKFC"}, names) {
			t.Errorf("expected [ZKFC], got %v", names)
		}
	})

	t.Run("unset action defaults to install and start", func(t *testing.T) {
		names := group.ComponentNames(ProvisionInstallAndStart)
		expected := []string{"NAMENODE", "HDFS_CLIENT"}
		if !reflect.DeepEqual(expected, names) {
			t.Errorf("expected %v, got %v", expected, names)
		}
	})

	t.Run("multiple actions union", func(t *testing.T) {
		names := group.ComponentNames(ProvisionInstallOnly, ProvisionInstallAndStart)
		expected := []string{"NAMENODE", "DATANODE", "HDFS_CLIENT"}
		if !reflect.DeepEqual(expected, names) {
			t.Errorf("expected %v, got %v", expected, names)
		}
	})
}

func TestBlueprintHostGroupLookup(t *testing.T) {
	blueprint := NewBlueprint("bp", nil, map[string]*HostGroup{
		"master": {Name: "master"},
	}, nil, nil)

	if blueprint.HostGroup("master") == nil {
		t.Error("expected master host group")
	}
	if blueprint.HostGroup("worker") != nil {
		t.Error("expected nil for undefined host group")
	}
}

func TestParseStackID(t *testing.T) {
	tests := []struct {
		input    string
		expected StackID
	}{
		{"HDP-3.0", StackID{Name: "HDP", Version: "3.0"}},
		{"HDPCORE-1.0.0", StackID{Name: "HDPCORE", Version: "1.0.0"}},
		{"HDP", StackID{Name: "HDP"}},
	}
	for _, tt := range tests {
		if got := ParseStackID(tt.input); got != tt.expected {
			t.Errorf("ParseStackID(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}

	t.Run("round trips through String", func(t *testing.T) {
		id := StackID{Name: "HDP", Version: "3.0"}
		if id.String() != "HDP-3.0" {
			t.Errorf("expected HDP-3.0, got %s", id.String())
		}
	})
}

func TestSettingClusterSettings(t *testing.T) {
	t.Run("creates the single record on first access", func(t *testing.T) {
		setting := NewSetting(nil)
		record := setting.ClusterSettings()
		record["key"] = "value"

		again := setting.ClusterSettings()
		if again["key"] != "value" {
			t.Error("expected repeated access to return the same record")
		}
		if len(setting.Properties()[SettingClusterSettings]) != 1 {
			t.Error("expected exactly one cluster_settings record")
		}
	})

	t.Run("reuses an existing record", func(t *testing.T) {
		setting := NewSetting(map[string][]map[string]string{
			SettingClusterSettings: {{"existing": "1"}},
		})
		if setting.ClusterSettings()["existing"] != "1" {
			t.Error("expected existing record to be returned")
		}
	})
}
