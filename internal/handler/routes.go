package handler

import "net/http"

// RegisterRoutes attaches the topology API surface to the mux.
func (h *TopologyHandler) RegisterRoutes(mux *http.ServeMux) {
	// Blueprint endpoints
	mux.HandleFunc("POST /api/blueprints", h.RegisterBlueprint)
	mux.HandleFunc("GET /api/blueprints", h.ListBlueprints)
	mux.HandleFunc("GET /api/blueprints/{name}", h.GetBlueprint)

	// Cluster endpoints
	mux.HandleFunc("GET /api/clusters", h.ListClusters)
	mux.HandleFunc("POST /api/clusters", h.CreateCluster)
	mux.HandleFunc("GET /api/clusters/{name}", h.GetCluster)
	mux.HandleFunc("DELETE /api/clusters/{name}", h.DeleteCluster)
	mux.HandleFunc("POST /api/clusters/{name}/scale", h.ScaleCluster)

	// Host assignment endpoints
	mux.HandleFunc("POST /api/clusters/{name}/hosts", h.AddHost)
	mux.HandleFunc("GET /api/clusters/{name}/hosts/{host}", h.GetHost)
	mux.HandleFunc("DELETE /api/clusters/{name}/hosts/{host}", h.RemoveHost)

	// Orchestration endpoints
	mux.HandleFunc("POST /api/clusters/{name}/hosts/{host}/install", h.InstallHost)
	mux.HandleFunc("POST /api/clusters/{name}/hosts/{host}/start", h.StartHost)

	// Placement and configuration queries
	mux.HandleFunc("GET /api/clusters/{name}/components/{component}", h.GetComponent)
	mux.HandleFunc("GET /api/clusters/{name}/configuration", h.GetConfiguration)
}
