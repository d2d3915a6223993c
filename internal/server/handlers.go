package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tocsync/internal/db"
	"github.com/ziadkadry99/tocsync/internal/host"
	"github.com/ziadkadry99/tocsync/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps page loading errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, host.ErrBadPage):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, db.ErrNotFound), errors.Is(err, host.ErrNoLink):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "site index not available")
		return
	}
	pages, err := s.db.ListPages(r.Context())
	if err != nil {
		s.log.Error("listing pages", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "listing pages failed")
		return
	}
	if pages == nil {
		pages = []db.Page{}
	}
	writeJSON(w, http.StatusOK, pages)
}

// handlePage serves /api/pages/{page} and /api/pages/{page}/headings. Page
// paths contain slashes, so the route is a wildcard.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "site index not available")
		return
	}
	page := chi.URLParam(r, "*")
	page, headings := strings.CutSuffix(page, "/headings")
	if page == "" {
		writeError(w, http.StatusBadRequest, "page is required")
		return
	}

	if headings {
		hs, err := s.db.PageHeadings(r.Context(), page)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		if hs == nil {
			hs = []db.Heading{}
		}
		writeJSON(w, http.StatusOK, hs)
		return
	}

	p, err := s.db.GetPage(r.Context(), page)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleAnchor lists the indexed headings with the given anchor across all
// pages, so a link like "#install" can be traced to the pages defining it.
func (s *Server) handleAnchor(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "site index not available")
		return
	}
	anchor := strings.TrimPrefix(chi.URLParam(r, "anchor"), "#")
	if anchor == "" {
		writeError(w, http.StatusBadRequest, "anchor is required")
		return
	}
	hs, err := s.db.FindAnchor(r.Context(), anchor)
	if err != nil {
		s.log.Error("finding anchor", zap.String("anchor", anchor), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "anchor lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

// handleTOC loads a page into a throwaway session, applies the requested
// fragment and highlight, and returns the bound TOC state.
func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("page")
	if f := strings.TrimPrefix(q.Get("fragment"), "#"); f != "" {
		ref += "#" + f
	}

	sess, err := session.New(r.Context(), s.loader, s.cfg.Schema, s.log)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer sess.Close()

	if err := sess.Navigate(r.Context(), ref); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if h := q.Get("highlight"); h != "" {
		if err := sess.Highlight(r.Context(), h); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
	}
	st, err := sess.State(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}
