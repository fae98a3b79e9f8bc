package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"clusterforge/internal/domain"
	"clusterforge/internal/loader"
	"clusterforge/internal/service"
	"clusterforge/internal/topology"
)

// TopologyHandler handles cluster topology API requests
type TopologyHandler struct {
	svc *service.TopologyService
}

// NewTopologyHandler creates a new topology handler
func NewTopologyHandler(svc *service.TopologyService) *TopologyHandler {
	return &TopologyHandler{svc: svc}
}

// Error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RegisterBlueprint registers a blueprint submitted as a YAML document
func (h *TopologyHandler) RegisterBlueprint(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	blueprint, err := loader.ParseBlueprint(data)
	if err != nil {
		h.writeError(w, "Invalid blueprint", err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.RegisterBlueprint(blueprint); err != nil {
		log.Printf("Failed to register blueprint: %v", err)
		h.writeError(w, "Failed to register blueprint", err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, blueprintSummary(blueprint), http.StatusCreated)
}

// ListBlueprints returns the names of all registered blueprints
func (h *TopologyHandler) ListBlueprints(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string][]string{"blueprints": h.svc.ListBlueprints()}, http.StatusOK)
}

// GetBlueprint returns one registered blueprint
func (h *TopologyHandler) GetBlueprint(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	blueprint, err := h.svc.Blueprint(name)
	if err != nil {
		h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, blueprintSummary(blueprint), http.StatusOK)
}

// CreateCluster provisions a cluster from a YAML provisioning request
func (h *TopologyHandler) CreateCluster(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := loader.ParseProvisionRequest(data)
	if err != nil {
		h.writeError(w, "Invalid provisioning request", err.Error(), http.StatusBadRequest)
		return
	}

	topo, err := h.svc.CreateCluster(r.Context(), doc)
	if err != nil {
		log.Printf("Failed to create cluster %s: %v", doc.ClusterName, err)
		h.writeError(w, "Failed to create cluster", err.Error(), statusForError(err))
		return
	}

	h.writeJSON(w, clusterSummary(topo), http.StatusCreated)
}

// ListClusters returns the names of all live clusters
func (h *TopologyHandler) ListClusters(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string][]string{"clusters": h.svc.ListClusters()}, http.StatusOK)
}

// GetCluster returns one cluster's topology summary
func (h *TopologyHandler) GetCluster(w http.ResponseWriter, r *http.Request) {
	topo, ok := h.cluster(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, clusterSummary(topo), http.StatusOK)
}

// DeleteCluster removes a cluster
func (h *TopologyHandler) DeleteCluster(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := h.svc.DeleteCluster(r.Context(), name); err != nil {
		log.Printf("Failed to delete cluster %s: %v", name, err)
		h.writeError(w, "Failed to delete cluster", err.Error(), statusForError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ScaleGroupRequest binds additional hosts or a host count to one registered
// host group.
type ScaleGroupRequest struct {
	Name      string        `json:"name"`
	HostCount int           `json:"host_count,omitempty"`
	Hosts     []HostRequest `json:"hosts,omitempty"`
}

// HostRequest is one concrete host in a scale request
type HostRequest struct {
	FQDN string `json:"fqdn"`
	Rack string `json:"rack,omitempty"`
}

// ScaleCluster applies a scale-out update to an existing cluster
func (h *TopologyHandler) ScaleCluster(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var groups []ScaleGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&groups); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if len(groups) == 0 {
		h.writeError(w, "No host groups supplied", "", http.StatusBadRequest)
		return
	}

	updates := make(map[string]*topology.HostGroupInfo, len(groups))
	for _, groupReq := range groups {
		if groupReq.Name == "" {
			h.writeError(w, "Host group name required", "", http.StatusBadRequest)
			return
		}
		if len(groupReq.Hosts) > 0 && groupReq.HostCount > 0 {
			h.writeError(w, "Invalid scale request",
				"host group "+groupReq.Name+": hosts and host_count are mutually exclusive", http.StatusBadRequest)
			return
		}
		group := topology.NewHostGroupInfo(groupReq.Name)
		for _, host := range groupReq.Hosts {
			if host.FQDN == "" {
				h.writeError(w, "Host fqdn required", "", http.StatusBadRequest)
				return
			}
			group.AddHost(host.FQDN)
			group.SetRackInfo(host.FQDN, host.Rack)
		}
		group.SetRequestedCount(groupReq.HostCount)
		updates[groupReq.Name] = group
	}

	if err := h.svc.ScaleCluster(r.Context(), name, updates); err != nil {
		log.Printf("Failed to scale cluster %s: %v", name, err)
		h.writeError(w, "Failed to scale cluster", err.Error(), statusForError(err))
		return
	}

	topo, err := h.svc.Cluster(name)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, clusterSummary(topo), http.StatusOK)
}

// AddHostRequest assigns one host to a host group
type AddHostRequest struct {
	HostGroup string `json:"host_group"`
	FQDN      string `json:"fqdn"`
}

// AddHost assigns a single host to a host group
func (h *TopologyHandler) AddHost(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req AddHostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.HostGroup == "" || req.FQDN == "" {
		h.writeError(w, "host_group and fqdn are required", "", http.StatusBadRequest)
		return
	}

	if err := h.svc.AddHost(r.Context(), name, req.HostGroup, req.FQDN); err != nil {
		log.Printf("Failed to add host to cluster %s: %v", name, err)
		h.writeError(w, "Failed to add host", err.Error(), statusForError(err))
		return
	}

	h.writeJSON(w, map[string]string{
		"cluster":    name,
		"host_group": req.HostGroup,
		"host":       topology.NormalizeHostName(req.FQDN),
	}, http.StatusCreated)
}

// RemoveHost removes a host from whichever group holds it
func (h *TopologyHandler) RemoveHost(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	host := r.PathValue("host")

	if err := h.svc.RemoveHost(r.Context(), name, host); err != nil {
		log.Printf("Failed to remove host from cluster %s: %v", name, err)
		h.writeError(w, "Failed to remove host", err.Error(), statusForError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHost returns one host's assignment and resolved components
func (h *TopologyHandler) GetHost(w http.ResponseWriter, r *http.Request) {
	topo, ok := h.cluster(w, r)
	if !ok {
		return
	}

	host := topology.NormalizeHostName(r.PathValue("host"))
	groupName := topo.HostGroupForHost(host)
	if groupName == "" {
		h.writeError(w, "Not found", "host "+host+" is not assigned to any host group", http.StatusNotFound)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"host":       host,
		"host_group": groupName,
		"components": topo.ComponentsInHostGroup(groupName),
	}, http.StatusOK)
}

// GetComponent returns where a component is placed
func (h *TopologyHandler) GetComponent(w http.ResponseWriter, r *http.Request) {
	topo, ok := h.cluster(w, r)
	if !ok {
		return
	}

	component := r.PathValue("component")
	h.writeJSON(w, map[string]interface{}{
		"component":   component,
		"host_groups": topo.HostGroupsForComponent(component),
		"hosts":       topo.HostAssignmentsForComponent(component),
	}, http.StatusOK)
}

// GetConfiguration resolves the effective configuration at cluster scope, or
// at host-group scope when the host_group query parameter is supplied
func (h *TopologyHandler) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	topo, ok := h.cluster(w, r)
	if !ok {
		return
	}

	configuration := topo.Configuration()
	if groupName := r.URL.Query().Get("host_group"); groupName != "" {
		configuration = topo.HostGroupConfiguration(groupName)
		if configuration == nil {
			h.writeError(w, "Not found", "host group "+groupName+" is not registered", http.StatusNotFound)
			return
		}
	}

	h.writeJSON(w, map[string]interface{}{
		"properties": configuration.GetFullProperties(),
		"attributes": configuration.GetFullAttributes(),
	}, http.StatusOK)
}

// InstallHost dispatches an install request for one assigned host
func (h *TopologyHandler) InstallHost(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	host := r.PathValue("host")
	skipInstall := r.URL.Query().Get("skip_install_tasks") == "true"
	skipFailure := r.URL.Query().Get("skip_failure") == "true"

	status, err := h.svc.InstallHost(r.Context(), name, host, skipInstall, skipFailure)
	if err != nil {
		log.Printf("Failed to dispatch install for cluster %s: %v", name, err)
		h.writeError(w, "Failed to dispatch install", err.Error(), statusForError(err))
		return
	}
	h.writeJSON(w, status, http.StatusAccepted)
}

// StartHost dispatches a start request for one assigned host
func (h *TopologyHandler) StartHost(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	host := r.PathValue("host")
	skipFailure := r.URL.Query().Get("skip_failure") == "true"

	status, err := h.svc.StartHost(r.Context(), name, host, skipFailure)
	if err != nil {
		log.Printf("Failed to dispatch start for cluster %s: %v", name, err)
		h.writeError(w, "Failed to dispatch start", err.Error(), statusForError(err))
		return
	}
	h.writeJSON(w, status, http.StatusAccepted)
}

// Helper methods

func (h *TopologyHandler) cluster(w http.ResponseWriter, r *http.Request) (*topology.ClusterTopology, bool) {
	topo, err := h.svc.Cluster(r.PathValue("name"))
	if err != nil {
		h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
		return nil, false
	}
	return topo, true
}

func (h *TopologyHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *TopologyHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// statusForError maps engine error types onto HTTP status codes.
func statusForError(err error) int {
	var unknownGroup *topology.UnknownHostGroupError
	var duplicates *topology.DuplicateHostsError
	var conflict *topology.ConflictingHostGroupError
	var invalid *topology.InvalidTopologyError
	var mismatch *topology.ConfigMismatchError

	switch {
	case errors.As(err, &duplicates), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &unknownGroup):
		return http.StatusBadRequest
	case errors.As(err, &invalid), errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity
	case strings.Contains(err.Error(), "already exists"):
		return http.StatusConflict
	case strings.Contains(err.Error(), "not found"),
		strings.Contains(err.Error(), "not registered"),
		strings.Contains(err.Error(), "not assigned"):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func blueprintSummary(blueprint *domain.Blueprint) map[string]interface{} {
	stacks := make([]string, 0, len(blueprint.Stacks()))
	for _, stackID := range blueprint.Stacks() {
		stacks = append(stacks, stackID.String())
	}

	groups := make(map[string]interface{}, len(blueprint.HostGroups()))
	for name, hostGroup := range blueprint.HostGroups() {
		groups[name] = map[string]interface{}{
			"components":  hostGroup.ComponentNames(),
			"cardinality": hostGroup.Cardinality,
		}
	}

	return map[string]interface{}{
		"name":        blueprint.Name(),
		"stacks":      stacks,
		"host_groups": groups,
	}
}

func clusterSummary(topo *topology.ClusterTopology) map[string]interface{} {
	stacks := make([]string, 0, len(topo.Stacks()))
	for _, stackID := range topo.Stacks() {
		stacks = append(stacks, stackID.String())
	}

	components := make(map[string][]domain.ResolvedComponent)
	for _, groupName := range topo.RegisteredHostGroups() {
		components[groupName] = topo.ComponentsInHostGroup(groupName)
	}

	return map[string]interface{}{
		"cluster":     topo.ClusterName(),
		"blueprint":   topo.Blueprint().Name(),
		"stacks":      stacks,
		"services":    topo.Services(),
		"host_groups": topo.HostGroupStates(),
		"components":  components,
	}
}
