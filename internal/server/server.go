// Package server exposes the practice set generator over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/arcoapp/arco/internal/config"
	"github.com/arcoapp/arco/internal/model"
	"github.com/arcoapp/arco/internal/selector"
	"github.com/arcoapp/arco/internal/store"
)

// Server routes API requests to the store and selector.
type Server struct {
	store *store.Store
	sel   *selector.Selector
	mux   *http.ServeMux
}

// New creates a Server over an opened store.
func New(st *store.Store, sel *selector.Selector) *Server {
	s := &Server{store: st, sel: sel, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /api/generate-set", s.handleGenerateSet)
	s.mux.HandleFunc("GET /api/likelihoods", s.handleLikelihoods)
	s.mux.HandleFunc("GET /api/items/{category}", s.handleListItems)
	s.mux.HandleFunc("PUT /api/items/{category}/{id}", s.handleUpdateItem)
	s.mux.HandleFunc("POST /api/items/{category}/bulk-enable", s.handleBulkEnable)
	s.mux.HandleFunc("POST /api/items/{category}/bulk-articulation", s.handleBulkArticulation)
	s.mux.HandleFunc("GET /api/selection-sets", s.handleListSelectionSets)
	s.mux.HandleFunc("POST /api/selection-sets", s.handleCreateSelectionSet)
	s.mux.HandleFunc("GET /api/selection-sets/active", s.handleActiveSelectionSet)
	s.mux.HandleFunc("PUT /api/selection-sets/{id}", s.handleUpdateSelectionSet)
	s.mux.HandleFunc("DELETE /api/selection-sets/{id}", s.handleDeleteSelectionSet)
	s.mux.HandleFunc("POST /api/selection-sets/{id}/load", s.handleLoadSelectionSet)
	s.mux.HandleFunc("POST /api/selection-sets/deactivate", s.handleDeactivateSelectionSets)
	s.mux.HandleFunc("POST /api/practice-sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/practice-history", s.handleHistory)
	s.mux.HandleFunc("GET /api/settings/algorithm", s.handleGetSettings)
	s.mux.HandleFunc("PUT /api/settings/algorithm", s.handleUpdateSettings)
	s.mux.HandleFunc("POST /api/settings/algorithm/reset", s.handleResetSettings)
	s.mux.HandleFunc("POST /api/init", s.handleInit)

	return s
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// ServeHTTP implements http.Handler and logs every request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	log.Printf("%s %s %d", r.Method, r.URL.Path, rec.status)
}

func (s *Server) handleGenerateSet(w http.ResponseWriter, r *http.Request) {
	items, err := s.sel.Generate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []model.GeneratedItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type likelihoodEntry struct {
	Category    model.Category `json:"category"`
	ID          int64          `json:"id"`
	DisplayName string         `json:"display_name"`
	Likelihood  float64        `json:"likelihood"`
}

func (s *Server) handleLikelihoods(w http.ResponseWriter, r *http.Request) {
	odds, err := s.sel.Likelihoods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	entries := []likelihoodEntry{}
	for _, category := range []model.Category{model.CategoryScale, model.CategoryArpeggio} {
		items, err := s.store.ListEnabledItems(r.Context(), category)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		for _, item := range items {
			entries = append(entries, likelihoodEntry{
				Category:    item.Category,
				ID:          item.ID,
				DisplayName: item.DisplayName(),
				Likelihood:  odds[item.Ref()],
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Likelihood == entries[j].Likelihood {
			return entries[i].DisplayName < entries[j].DisplayName
		}
		return entries[i].Likelihood > entries[j].Likelihood
	})
	writeJSON(w, http.StatusOK, map[string]any{"likelihoods": entries})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(w, r)
	if !ok {
		return
	}
	filter := model.CatalogFilter{
		Note: r.URL.Query().Get("note"),
		Type: r.URL.Query().Get("type"),
	}
	if v := r.URL.Query().Get("octaves"); v != "" {
		octaves, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid octaves"))
			return
		}
		filter.Octaves = octaves
	}
	if v := r.URL.Query().Get("enabled"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid enabled flag"))
			return
		}
		filter.Enabled = &enabled
	}
	items, err := s.store.ListItems(r.Context(), category, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []model.CatalogItem{}
	}
	type itemResponse struct {
		model.CatalogItem
		DisplayName string `json:"display_name"`
	}
	out := make([]itemResponse, len(items))
	for i, item := range items {
		out[i] = itemResponse{CatalogItem: item, DisplayName: item.DisplayName()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

type itemUpdateRequest struct {
	Enabled          *bool                   `json:"enabled"`
	Weight           *float64                `json:"weight"`
	TargetBPM        *int                    `json:"target_bpm"`
	ArticulationMode *model.ArticulationMode `json:"articulation_mode"`
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid item id"))
		return
	}
	var req itemUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	item, err := s.store.UpdateItem(r.Context(), category, id, store.CatalogUpdate{
		Enabled:          req.Enabled,
		Weight:           req.Weight,
		TargetBPM:        req.TargetBPM,
		ArticulationMode: req.ArticulationMode,
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.New("item not found"))
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type bulkEnableRequest struct {
	IDs     []int64 `json:"ids"`
	Enabled bool    `json:"enabled"`
}

func (s *Server) handleBulkEnable(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(w, r)
	if !ok {
		return
	}
	var req bulkEnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	updated, err := s.store.BulkEnable(r.Context(), category, req.IDs, req.Enabled)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

type bulkArticulationRequest struct {
	IDs              []int64                `json:"ids"`
	ArticulationMode model.ArticulationMode `json:"articulation_mode"`
}

func (s *Server) handleBulkArticulation(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(w, r)
	if !ok {
		return
	}
	var req bulkArticulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if !req.ArticulationMode.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("invalid articulation mode"))
		return
	}
	updated, err := s.store.BulkArticulation(r.Context(), category, req.IDs, req.ArticulationMode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (s *Server) handleListSelectionSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.store.ListSelectionSets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if sets == nil {
		sets = []model.SelectionSet{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"selection_sets": sets})
}

type createSelectionSetRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateSelectionSet(w http.ResponseWriter, r *http.Request) {
	var req createSelectionSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	set, err := s.store.CreateSelectionSet(r.Context(), req.Name)
	if errors.Is(err, store.ErrNameTaken) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleActiveSelectionSet(w http.ResponseWriter, r *http.Request) {
	set, err := s.store.ActiveSelectionSet(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

type selectionSetUpdateRequest struct {
	Name        *string `json:"name"`
	ScaleIDs    []int64 `json:"scale_ids"`
	ArpeggioIDs []int64 `json:"arpeggio_ids"`
	FromCurrent bool    `json:"update_from_current"`
}

func (s *Server) handleUpdateSelectionSet(w http.ResponseWriter, r *http.Request) {
	id, ok := selectionSetIDParam(w, r)
	if !ok {
		return
	}
	var req selectionSetUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	set, err := s.store.UpdateSelectionSet(r.Context(), id, store.SelectionSetUpdate{
		Name:        req.Name,
		ScaleIDs:    req.ScaleIDs,
		ArpeggioIDs: req.ArpeggioIDs,
		FromCurrent: req.FromCurrent,
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.New("selection set not found"))
		return
	}
	if errors.Is(err, store.ErrNameTaken) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleDeleteSelectionSet(w http.ResponseWriter, r *http.Request) {
	id, ok := selectionSetIDParam(w, r)
	if !ok {
		return
	}
	err := s.store.DeleteSelectionSet(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.New("selection set not found"))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "selection set deleted"})
}

func (s *Server) handleLoadSelectionSet(w http.ResponseWriter, r *http.Request) {
	id, ok := selectionSetIDParam(w, r)
	if !ok {
		return
	}
	result, err := s.store.LoadSelectionSet(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.New("selection set not found"))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeactivateSelectionSets(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeactivateSelectionSets(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "all selection sets deactivated, all items disabled"})
}

func selectionSetIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid selection set id"))
		return 0, false
	}
	return id, true
}

type createSessionRequest struct {
	Entries []model.PracticeEntry `json:"entries"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	for _, entry := range req.Entries {
		if !entry.ItemType.Valid() {
			writeError(w, http.StatusBadRequest, errors.New("invalid entry item type"))
			return
		}
	}
	summary, err := s.store.InsertSession(r.Context(), req.Entries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	category := model.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("invalid category"))
		return
	}
	history, err := s.store.History(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if history == nil {
		history = []model.HistoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.AlgorithmConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

type settingsUpdateRequest struct {
	Config config.Algorithm `json:"config"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if err := s.store.SaveAlgorithmConfig(r.Context(), req.Config); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	cfg, err := s.store.AlgorithmConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetAlgorithmConfig(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	cfg, err := s.store.AlgorithmConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.SeedCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func categoryParam(w http.ResponseWriter, r *http.Request) (model.Category, bool) {
	category := model.Category(r.PathValue("category"))
	if !category.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("invalid category"))
		return "", false
	}
	return category, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
