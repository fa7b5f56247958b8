package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/models"
	"github.com/ternarybob/narro/internal/services/knowledge"
)

// KnowledgeSearcher finds entries relevant to a query
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string) ([]models.KnowledgeEntry, error)
}

// KnowledgeHandler lists, searches and adds knowledge entries
type KnowledgeHandler struct {
	store    interfaces.KnowledgeStorage
	searcher KnowledgeSearcher
	logger   arbor.ILogger
}

func NewKnowledgeHandler(store interfaces.KnowledgeStorage, searcher KnowledgeSearcher, logger arbor.ILogger) *KnowledgeHandler {
	return &KnowledgeHandler{
		store:    store,
		searcher: searcher,
		logger:   logger,
	}
}

// KnowledgeRouteHandler handles GET /api/knowledge[?q=] and POST /api/knowledge
func (h *KnowledgeHandler) KnowledgeRouteHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.list(w, r)
	case "POST":
		h.add(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *KnowledgeHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		entries []models.KnowledgeEntry
		err     error
	)
	if query := r.URL.Query().Get("q"); query != "" {
		entries, err = h.searcher.Search(r.Context(), query)
	} else {
		entries, err = h.store.ListKnowledge(r.Context())
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list knowledge")
		WriteError(w, http.StatusInternalServerError, "Failed to list knowledge")
		return
	}
	if entries == nil {
		entries = []models.KnowledgeEntry{}
	}

	WriteJSON(w, http.StatusOK, entries)
}

func (h *KnowledgeHandler) add(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string   `json:"text"`
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Text == "" {
		WriteError(w, http.StatusBadRequest, "Text is required")
		return
	}

	entry, err := knowledge.Add(r.Context(), h.store, body.Text, body.Tags)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to add knowledge")
		WriteError(w, http.StatusInternalServerError, "Failed to add knowledge")
		return
	}

	h.logger.Info().Str("id", entry.ID).Strs("tags", entry.Tags).Msg("Knowledge entry added")
	WriteJSON(w, http.StatusCreated, entry)
}
