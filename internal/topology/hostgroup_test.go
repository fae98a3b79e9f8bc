package topology

import (
	"reflect"
	"testing"
)

func TestHostGroupInfoAddHost(t *testing.T) {
	group := NewHostGroupInfo("worker")

	if !group.AddHost("Host1.Example.COM") {
		t.Error("expected first add to change the set")
	}
	if group.AddHost("host1.example.com") {
		t.Error("expected second add to be a no-op")
	}
	if !reflect.DeepEqual([]string{"host1.example.com"}, group.Hosts()) {
		t.Errorf("expected normalized single host, got %v", group.Hosts())
	}
	if !group.ContainsHost("HOST1.example.com") {
		t.Error("expected membership check to ignore case")
	}
}

func TestHostGroupInfoRemoveHost(t *testing.T) {
	group := NewHostGroupInfo("worker")
	group.AddHost("h1")
	group.SetRackInfo("h1", "/rack1")

	if !group.RemoveHost("H1") {
		t.Error("expected removal to report a change")
	}
	if group.RemoveHost("h1") {
		t.Error("expected second removal to be a no-op")
	}
	if _, ok := group.RackInfo()["h1"]; ok {
		t.Error("expected rack info cleared with the host")
	}
}

func TestHostGroupInfoRequestedHostCount(t *testing.T) {
	group := NewHostGroupInfo("worker")
	group.AddHosts([]string{"h1", "h2"})

	if group.RequestedHostCount() != 2 {
		t.Errorf("expected fallback to assigned host count, got %d", group.RequestedHostCount())
	}

	group.SetRequestedCount(5)
	if group.RequestedHostCount() != 5 {
		t.Errorf("expected explicit count to win, got %d", group.RequestedHostCount())
	}

	group.SetRequestedCount(-1)
	if group.RequestedHostCount() != 2 {
		t.Errorf("expected negative count to clear the request, got %d", group.RequestedHostCount())
	}
}

func TestHostGroupInfoRackInfo(t *testing.T) {
	group := NewHostGroupInfo("worker")
	group.SetRackInfo("H1", "/dc1/rack1")
	group.SetRackInfo("h2", "")

	if group.RackInfo()["h1"] != "/dc1/rack1" {
		t.Error("expected rack recorded under the normalized hostname")
	}
	if _, ok := group.RackInfo()["h2"]; ok {
		t.Error("expected empty rack to be ignored")
	}
}
