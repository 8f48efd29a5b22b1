package service

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/viant/mcp-hieroglyph/hieroglyph/catalog"
)

// HTTPPrefix is the URL subtree served by HTTPHandler.
const HTTPPrefix = "/hieroglyph/"

// RegisterHTTP registers the hieroglyph HTTP subtree on the provided mux.
func (s *Service) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc(HTTPPrefix, s.HTTPHandler())
}

// HTTPHandler routes session, grapheme listing and asset requests.
func (s *Service) HTTPHandler() http.HandlerFunc {
	r := mux.NewRouter()
	r.HandleFunc("/hieroglyph/session", s.SessionHandler()).Methods(http.MethodGet)
	r.HandleFunc("/hieroglyph/session/clear", s.SessionClearHandler()).Methods(http.MethodPost)
	r.HandleFunc("/hieroglyph/session/reset", s.SessionResetHandler()).Methods(http.MethodPost)
	r.HandleFunc("/hieroglyph/graphemes", s.GraphemesHandler()).Methods(http.MethodGet)
	r.HandleFunc("/hieroglyph/assets/{id}", s.AssetHandler()).Methods(http.MethodGet)
	return r.ServeHTTP
}

// scoped binds the service to ?namespace= when given. The override is not checked against the
// caller's token: anyone able to reach these routes can read, clear or reset any namespace, so
// they belong behind the authorizer or on an operator-only listener.
func (s *Service) scoped(r *http.Request) *Service {
	if ns := strings.TrimSpace(r.URL.Query().Get("namespace")); ns != "" {
		return s.Bound(ns)
	}
	return s
}

func (s *Service) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
		writeJSON(w, http.StatusOK, s.scoped(r).State(r.Context(), refresh))
	}
}

func (s *Service) SessionClearHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.scoped(r).Clear(r.Context()))
	}
}

func (s *Service) SessionResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.scoped(r).Reset(r.Context()))
	}
}

func (s *Service) GraphemesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		in := &ListGraphemesInput{}
		for name, dest := range map[string]*int{"offset": &in.Offset, "limit": &in.Limit, "columns": &in.Columns, "screenWidth": &in.ScreenWidth} {
			v := q.Get(name)
			if v == "" {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "invalid "+name, http.StatusBadRequest)
				return
			}
			*dest = n
		}
		in.SelectableOnly, _ = strconv.ParseBool(q.Get("selectableOnly"))
		writeJSON(w, http.StatusOK, s.scoped(r).ListGraphemes(r.Context(), in))
	}
}

// AssetHandler streams a grapheme image; {id} is a number, asset name or wire value.
func (s *Service) AssetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := s.catalog.Resolve(mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		rc, err := s.catalog.OpenImage(r.Context(), g.ID)
		if err != nil {
			status := http.StatusNotFound
			if errors.Is(err, catalog.ErrNoAssets) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, err.Error(), status)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", catalog.ImageMimeType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := io.Copy(w, rc); err != nil {
			s.logger.Warn().Err(err).Int("id", g.ID).Msg("failed to stream grapheme image")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
