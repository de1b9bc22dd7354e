package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/iota-pi/flock-sub001/internal/model"
)

type itemsResponse struct {
	Success bool              `json:"success"`
	Items   []model.VaultItem `json:"items"`
}

type detailsResponse struct {
	Success bool               `json:"success"`
	Details []model.ItemResult `json:"details"`
}

type putItemRequest struct {
	Cipher   string         `json:"cipher"`
	IV       string         `json:"iv"`
	Modified int64          `json:"modified"`
	Type     model.ItemType `json:"type"`
}

type putItemsEntry struct {
	ID       string         `json:"id"`
	Cipher   string         `json:"cipher"`
	IV       string         `json:"iv"`
	Modified int64          `json:"modified"`
	Type     model.ItemType `json:"type"`
}

// handleFetchItems serves GET /:account/items?since=&ids=. With ids it is an
// exact-id batch read; with since an incremental delta (modified strictly
// greater); with neither, a full snapshot.
func (s *Server) handleFetchItems(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	q := r.URL.Query()

	var ids []string
	if raw := q.Get("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	var since *int64
	if raw := q.Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(w, "bad since value")
			return
		}
		since = &v
	}

	items, err := s.items.Fetch(r.Context(), account, since, ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, itemsResponse{Success: true, Items: items})
}

// handleGetItem serves a single item, wrapped in a one-element items array to
// keep the response shape uniform with the batch read.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.items.Get(r.Context(), r.PathValue("account"), r.PathValue("item"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, itemsResponse{Success: true, Items: []model.VaultItem{*it}})
}

// handlePutItem upserts a single item; the first error surfaces directly.
func (s *Server) handlePutItem(w http.ResponseWriter, r *http.Request) {
	var req putItemRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "bad request body")
		return
	}
	it := model.VaultItem{
		Account:  r.PathValue("account"),
		ID:       r.PathValue("item"),
		Cipher:   req.Cipher,
		IV:       req.IV,
		Type:     req.Type,
		Modified: req.Modified,
	}
	if err := s.items.Set(r.Context(), &it); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, successResponse{Success: true})
}

// handlePutItems upserts a batch with per-item reporting: one bad item never
// fails the batch.
func (s *Server) handlePutItems(w http.ResponseWriter, r *http.Request) {
	var entries []putItemsEntry
	if err := decodeBody(r, &entries); err != nil {
		badRequest(w, "bad request body")
		return
	}
	items := make([]model.VaultItem, len(entries))
	for i, e := range entries {
		items[i] = model.VaultItem{
			ID:       e.ID,
			Cipher:   e.Cipher,
			IV:       e.IV,
			Type:     e.Type,
			Modified: e.Modified,
		}
	}
	details := s.items.SetBatch(r.Context(), r.PathValue("account"), items)
	writeJSON(w, detailsResponse{Success: true, Details: details})
}

// handleDeleteItem removes a single item. Idempotent.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.items.Delete(r.Context(), r.PathValue("account"), r.PathValue("item")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, successResponse{Success: true})
}

// handleDeleteItems removes a batch of ids with per-item reporting.
func (s *Server) handleDeleteItems(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := decodeBody(r, &ids); err != nil {
		badRequest(w, "bad request body")
		return
	}
	details := s.items.DeleteBatch(r.Context(), r.PathValue("account"), ids)
	writeJSON(w, detailsResponse{Success: true, Details: details})
}
