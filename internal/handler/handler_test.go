package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clusterforge/internal/repository/sqlite"
	"clusterforge/internal/service"
	"clusterforge/internal/stack"
)

const testStackYAML = `
stacks:
  - name: HDP
    version: "3.0"
    services:
      - name: HDFS
        config_types: [hdfs-site, hadoop-env]
        components:
          - name: NAMENODE
            master: true
          - name: DATANODE
        defaults:
          hdfs-site:
            dfs.replication: "3"
cluster_settings:
  - command_retry_enabled
`

const testBlueprintYAML = `
name: hdfs
stacks: [HDP-3.0]
host_groups:
  - name: master
    components:
      - name: NAMENODE
  - name: worker
    components:
      - name: DATANODE
`

const testRequestYAML = `
cluster_name: prod
blueprint: hdfs
host_groups:
  - name: master
    hosts:
      - fqdn: nn1.example.com
  - name: worker
    host_count: 2
`

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	stackDef, err := stack.Parse([]byte(testStackYAML))
	if err != nil {
		t.Fatalf("failed to parse stack metadata: %v", err)
	}

	svc := service.NewTopologyService(store, stackDef, service.LogOrchestrator{}, service.NewEventBus())
	mux := http.NewServeMux()
	NewTopologyHandler(svc).RegisterRoutes(mux)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v (body: %s)", err, rec.Body.String())
	}
	return payload
}

func provisionTestCluster(t *testing.T, mux *http.ServeMux) {
	t.Helper()
	if rec := doRequest(t, mux, http.MethodPost, "/api/blueprints", testBlueprintYAML); rec.Code != http.StatusCreated {
		t.Fatalf("failed to register blueprint: %d %s", rec.Code, rec.Body.String())
	}
	if rec := doRequest(t, mux, http.MethodPost, "/api/clusters", testRequestYAML); rec.Code != http.StatusCreated {
		t.Fatalf("failed to create cluster: %d %s", rec.Code, rec.Body.String())
	}
}

func TestBlueprintEndpoints(t *testing.T) {
	mux := newTestMux(t)

	rec := doRequest(t, mux, http.MethodPost, "/api/blueprints", testBlueprintYAML)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeJSON(t, rec)
	if payload["name"] != "hdfs" {
		t.Errorf("unexpected blueprint name: %v", payload["name"])
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/blueprints", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/blueprints/hdfs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	t.Run("unknown blueprint", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodGet, "/api/blueprints/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("invalid blueprint document", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodPost, "/api/blueprints", "name: only-a-name\n")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestClusterLifecycle(t *testing.T) {
	mux := newTestMux(t)
	provisionTestCluster(t, mux)

	rec := doRequest(t, mux, http.MethodGet, "/api/clusters/prod", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeJSON(t, rec)
	if payload["cluster"] != "prod" || payload["blueprint"] != "hdfs" {
		t.Errorf("unexpected cluster summary: %v", payload)
	}

	rec = doRequest(t, mux, http.MethodPost, "/api/clusters/prod/hosts", `{"host_group":"worker","fqdn":"DN1.Example.Com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/clusters/prod/hosts/dn1.example.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload = decodeJSON(t, rec)
	if payload["host_group"] != "worker" {
		t.Errorf("expected worker assignment, got %v", payload["host_group"])
	}

	rec = doRequest(t, mux, http.MethodPost, "/api/clusters/prod/scale", `[{"name":"worker","hosts":[{"fqdn":"dn2.example.com","rack":"/dc1/rack2"}]}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/clusters/prod/components/DATANODE", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload = decodeJSON(t, rec)
	hosts, _ := payload["hosts"].([]interface{})
	if len(hosts) != 2 {
		t.Errorf("expected 2 DATANODE hosts, got %v", payload["hosts"])
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/clusters/prod/configuration", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload = decodeJSON(t, rec)
	properties, _ := payload["properties"].(map[string]interface{})
	hdfsSite, _ := properties["hdfs-site"].(map[string]interface{})
	if hdfsSite["dfs.replication"] != "3" {
		t.Errorf("expected stack default resolved, got %v", properties)
	}

	rec = doRequest(t, mux, http.MethodDelete, "/api/clusters/prod/hosts/dn1.example.com", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodDelete, "/api/clusters/prod", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doRequest(t, mux, http.MethodGet, "/api/clusters/prod", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestClusterErrorMapping(t *testing.T) {
	mux := newTestMux(t)

	t.Run("unknown blueprint", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodPost, "/api/clusters", testRequestYAML)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	provisionTestCluster(t, mux)

	t.Run("conflicting host assignment", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodPost, "/api/clusters/prod/hosts", `{"host_group":"worker","fqdn":"nn1.example.com"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("scale group with both hosts and host_count", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodPost, "/api/clusters/prod/scale", `[{"name":"worker","host_count":3,"hosts":[{"fqdn":"dn9.example.com"}]}]`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "mutually exclusive") {
			t.Errorf("expected mutual-exclusion detail, got %s", rec.Body.String())
		}
		// A rejected scale must not have applied the host addition.
		rec = doRequest(t, mux, http.MethodGet, "/api/clusters/prod/hosts/dn9.example.com", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for unapplied host, got %d", rec.Code)
		}
	})

	t.Run("unknown host group in scale", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodPost, "/api/clusters/prod/scale", `[{"name":"edge","hosts":[{"fqdn":"e1.example.com"}]}]`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("duplicate cluster", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodPost, "/api/clusters", testRequestYAML)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestDispatchEndpoints(t *testing.T) {
	mux := newTestMux(t)
	provisionTestCluster(t, mux)

	rec := doRequest(t, mux, http.MethodPost, "/api/clusters/prod/hosts/nn1.example.com/install", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeJSON(t, rec)
	if payload["action"] != "install" {
		t.Errorf("unexpected dispatch payload: %v", payload)
	}

	rec = doRequest(t, mux, http.MethodPost, "/api/clusters/prod/hosts/nn1.example.com/start", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	t.Run("unassigned host", func(t *testing.T) {
		rec := doRequest(t, mux, http.MethodPost, "/api/clusters/prod/hosts/ghost.example.com/install", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
