package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/buildinfo"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/generate"
	"github.com/matzehuels/gridplan/pkg/pipeline"
	"github.com/matzehuels/gridplan/pkg/store"
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

type kindResponse struct {
	Name   string   `json:"name"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Roles  []string `json:"roles,omitempty"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	kinds := s.cfg.Catalog.Kinds()
	out := make([]kindResponse, len(kinds))
	for i, k := range kinds {
		out[i] = kindResponse{Name: k.Name, Width: k.Width, Height: k.Height, Roles: k.Roles.Names()}
	}
	s.writeJSON(w, http.StatusOK, out)
}

type generateResponse struct {
	Hash      string               `json:"hash"`
	Cached    bool                 `json:"cached"`
	Placed    []blueprint.EntityID `json:"placed"`
	Result    *generate.Result     `json:"result"`
	Blueprint json.RawMessage      `json:"blueprint"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "generator")
	if err := generate.ValidateName(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.generateOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	res, err := s.cfg.Runner.Execute(r.Context(), body, pipeline.Options{
		Generator: name,
		Generate:  opts,
		Formats:   []string{pipeline.FormatJSON},
		Refresh:   r.URL.Query().Get("refresh") == "true",
		Catalog:   s.cfg.Catalog,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	placed := res.Placed
	if placed == nil {
		placed = []blueprint.EntityID{}
	}
	s.writeJSON(w, http.StatusOK, generateResponse{
		Hash:      res.Hash,
		Cached:    res.CacheInfo.GenerateHit,
		Placed:    placed,
		Result:    res.Generated,
		Blueprint: res.Artifacts[pipeline.FormatJSON],
	})
}

// generateOptions overlays query parameters on the configured defaults.
func (s *Server) generateOptions(r *http.Request) (generate.Options, error) {
	opts := s.cfg.Generate
	q := r.URL.Query()

	ints := map[string]*int{
		"min_gap":      &opts.Pipes.MinGap,
		"max_turns":    &opts.Pipes.MaxTurns,
		"retries":      &opts.Pipes.Retries,
		"margin":       &opts.Pipes.Margin,
		"min_affected": &opts.Beacons.MinAffected,
	}
	for key, dst := range ints {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "query parameter %s must be an integer", key)
			}
			if err := generate.RequirePositive(key, n); err != nil {
				return opts, err
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"no_underground":  &opts.Pipes.NoUnderground,
		"ignore_existing": &opts.Poles.IgnoreExisting,
	}
	for key, dst := range bools {
		if v := q.Get(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "query parameter %s must be a boolean", key)
			}
			*dst = b
		}
	}

	strs := map[string]*string{
		"pipe_kind":        &opts.Pipes.PipeKind,
		"underground_kind": &opts.Pipes.UndergroundKind,
		"pole_kind":        &opts.Poles.Kind,
		"beacon_kind":      &opts.Beacons.Kind,
	}
	for key, dst := range strs {
		if v := q.Get(key); v != "" {
			*dst = v
		}
	}
	return opts, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Meta{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	raw, meta, err := s.cfg.Store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(meta.Hash))
	s.writeJSON(w, http.StatusOK, raw)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.save(w, r, store.NewName(), http.StatusCreated)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	s.save(w, r, chi.URLParam(r, "name"), http.StatusOK)
}

// save validates the body against the catalog before storing it, so every
// saved blueprint can be loaded again.
func (s *Server) save(w http.ResponseWriter, r *http.Request, name string, status int) {
	if err := errors.ValidateBlueprintName(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	bp, err := blueprint.ReadJSON(s.cfg.Catalog, bytes.NewReader(data))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	meta, err := s.cfg.Store.Save(r.Context(), name, bp.ToRaw())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, status, meta)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
