package handlers

import (
	"net/http"
	"strconv"

	"facegate/internal/constants"
	"facegate/internal/identity"
	"facegate/internal/records"
)

// RecordsHandler serves the read-only record listing.
type RecordsHandler struct {
	store records.Store
}

// NewRecordsHandler creates a records handler.
func NewRecordsHandler(store records.Store) *RecordsHandler {
	return &RecordsHandler{store: store}
}

type recordEntry struct {
	Identifier string `json:"identifier"`
	Display    string `json:"display"`
}

// List handles GET /api/v1/records with optional offset/limit pagination.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ListIdentifiers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", constants.DefaultRecordPageSize)

	total := len(ids)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	entries := make([]recordEntry, 0, end-offset)
	for _, id := range ids[offset:end] {
		entries = append(entries, recordEntry{
			Identifier: id,
			Display:    identity.Display(id),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"records": entries,
		"total":   total,
		"offset":  offset,
	})
}

// queryInt reads a non-negative integer query parameter with a default.
func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return def
}
