package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"worshipsongs/internal/app/songs"
	"worshipsongs/internal/models"
)

// tempoText accepts tempo as either a JSON number or a string, keeping the raw text for validation.
type tempoText string

func (t *tempoText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = tempoText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = tempoText(n.String())
	return nil
}

type songRequest struct {
	Title          string    `json:"title"`
	Artist         string    `json:"artist"`
	Key            string    `json:"key"`
	Tempo          tempoText `json:"tempo"`
	TimeSignature  string    `json:"time_signature"`
	Copyright      string    `json:"copyright"`
	Content        string    `json:"content"`
	IsFavorite     bool      `json:"is_favorite"`
	IsPublicDomain bool      `json:"is_public_domain"`
}

func (req songRequest) fields() songs.Fields {
	return songs.Fields{
		Title:          req.Title,
		Artist:         req.Artist,
		Key:            req.Key,
		Tempo:          string(req.Tempo),
		TimeSignature:  req.TimeSignature,
		Copyright:      req.Copyright,
		Content:        req.Content,
		IsFavorite:     req.IsFavorite,
		IsPublicDomain: req.IsPublicDomain,
	}
}

type songResponse struct {
	*models.Song
	KeySuggestion string `json:"key_suggestion,omitempty"`
}

func newSongResponse(song *models.Song) songResponse {
	suggestion, _ := songs.SuggestKey(song.Key)
	return songResponse{Song: song, KeySuggestion: suggestion}
}

func (s *Server) listSongs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := songs.Query{Search: q.Get("q")}

	if raw := q.Get("favorites"); raw != "" {
		favorites, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "favorites must be true or false"})
			return
		}
		query.FavoritesOnly = favorites
	}
	order, err := songs.ParseSortOrder(q.Get("sort"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	query.Sort = order

	result, err := s.songs.List(r.Context(), query)
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

func (s *Server) createSong(w http.ResponseWriter, r *http.Request) {
	var req songRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	song, err := s.songs.Create(r.Context(), req.fields())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSongResponse(song))
}

func (s *Server) getSong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	song, err := s.songs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSongResponse(song))
}

func (s *Server) updateSong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req songRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	song, err := s.songs.Update(r.Context(), id, req.fields())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSongResponse(song))
}

func (s *Server) deleteSong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.songs.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	song, err := s.songs.ToggleFavorite(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSongResponse(song))
}
