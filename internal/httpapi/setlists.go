package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"worshipsongs/internal/app/setlists"
	"worshipsongs/internal/models"
)

type setlistRequest struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

// info converts the request, accepting dates as YYYY-MM-DD or RFC 3339.
func (req setlistRequest) info() (setlists.Info, error) {
	info := setlists.Info{Name: req.Name, Notes: req.Notes}
	raw := strings.TrimSpace(req.Date)
	if raw == "" {
		return info, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if date, err := time.Parse(layout, raw); err == nil {
			info.Date = &date
			return info, nil
		}
	}
	return info, fmt.Errorf("date %q must be YYYY-MM-DD", raw)
}

type addSongsRequest struct {
	SongIDs []uuid.UUID `json:"song_ids"`
}

type reorderRequest struct {
	From []int `json:"from"`
	To   *int  `json:"to"`
}

func (s *Server) listSetlists(w http.ResponseWriter, r *http.Request) {
	result, err := s.setlists.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result == nil {
		result = []*models.Setlist{}
	}
	writeJSON(w, http.StatusOK, struct {
		Setlists []*models.Setlist `json:"setlists"`
	}{Setlists: result})
}

func (s *Server) createSetlist(w http.ResponseWriter, r *http.Request) {
	var req setlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	info, err := req.info()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	setlist, err := s.setlists.Create(r.Context(), info)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, setlist)
}

func (s *Server) getSetlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := s.setlists.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) updateSetlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req setlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	info, err := req.info()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	setlist, err := s.setlists.Update(r.Context(), id, info)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setlist)
}

func (s *Server) deleteSetlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.setlists.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCandidates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := s.setlists.Candidates(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result == nil {
		result = []*models.Song{}
	}
	writeJSON(w, http.StatusOK, struct {
		Songs []*models.Song `json:"songs"`
	}{Songs: result})
}

func (s *Server) addSetlistSongs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req addSongsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.SongIDs) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: []string{"No songs selected"}})
		return
	}
	view, err := s.setlists.AddSongs(r.Context(), id, req.SongIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) removeSetlistSong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	view, err := s.setlists.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) reorderSetlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.From) == 0 || req.To == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from and to are required"})
		return
	}
	view, err := s.setlists.Reorder(r.Context(), id, req.From, *req.To)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) exportSetlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.setlists.Export(r.Context(), id, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
