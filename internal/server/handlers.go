package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/five82/stylefix/internal/fixes"
)

const maxFixBody = 1 << 20

// Status is the body of GET /bridge/status.
type Status struct {
	Running             bool       `json:"running"`
	ApplicationID       string     `json:"application_id"`
	AutoApply           bool       `json:"auto_apply"`
	PollIntervalMS      int64      `json:"poll_interval_ms"`
	Applied             int        `json:"applied"`
	Seen                int        `json:"seen"`
	Cycles              int64      `json:"cycles"`
	LastPoll            *time.Time `json:"last_poll,omitempty"`
	LastFetched         int        `json:"last_fetched"`
	LastPending         int        `json:"last_pending"`
	LastError           string     `json:"last_error,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	Offline             bool       `json:"offline"`
}

// ApplyResult is the body returned by POST /bridge/fixes.
type ApplyResult struct {
	ID      string `json:"id"`
	Applied bool   `json:"applied"`
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	started := s.handle.Start(s.baseCtx)
	writeJSON(w, http.StatusOK, map[string]bool{"started": started, "running": true})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.handle.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"running": false})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	inj := s.handle.Injector
	cfg := inj.Config()
	snap := inj.Store().Snapshot()

	st := Status{
		Running:             inj.Running(),
		ApplicationID:       cfg.ApplicationID,
		AutoApply:           cfg.AutoApply,
		PollIntervalMS:      cfg.PollInterval.Milliseconds(),
		Applied:             len(inj.AppliedFixes()),
		Seen:                inj.SeenCount(),
		Cycles:              snap.Cycles,
		LastFetched:         snap.LastFetched,
		LastPending:         snap.LastPending,
		ConsecutiveFailures: snap.ConsecutiveFailures,
		Offline:             snap.IsOffline(),
	}
	if !snap.LastPoll.IsZero() {
		t := snap.LastPoll
		st.LastPoll = &t
	}
	if snap.LastError != nil {
		st.LastError = snap.LastError.Error()
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListFixes(w http.ResponseWriter, _ *http.Request) {
	applied := s.handle.Injector.Store().Snapshot().Applied
	if applied == nil {
		applied = []fixes.Fix{}
	}
	writeJSON(w, http.StatusOK, applied)
}

func (s *Server) handleApplyFix(w http.ResponseWriter, r *http.Request) {
	fix, err := decodeFix(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	applied := s.handle.ApplyFix(r.Context(), fix)
	writeJSON(w, http.StatusOK, ApplyResult{ID: fix.ID, Applied: applied})
}

func (s *Server) handleRollbackFix(w http.ResponseWriter, r *http.Request) {
	id, err := fixIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.handle.RollbackFix(r.Context(), id) {
		writeError(w, http.StatusNotFound, errors.New("fix not applied: "+id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "rolled_back": true})
}

// fixIDParam returns the decoded {id} segment. chi matches on RawPath when
// the request carries one, so ids holding an escaped "/" arrive escaped.
func fixIDParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id, nil
	}
	decoded, err := url.PathUnescape(id)
	if err != nil {
		return "", fmt.Errorf("invalid fix id %q: %w", id, err)
	}
	return decoded, nil
}

func (s *Server) handleClearFixes(w http.ResponseWriter, r *http.Request) {
	s.handle.ClearAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	fix, err := decodeFix(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.sheet.Preview(fix)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(s.sheet.Text()))
}

// decodeFix reads a fix body, filling in a generated id and pending status
// when absent.
func decodeFix(r *http.Request) (*fixes.Fix, error) {
	var fix fixes.Fix
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxFixBody))
	if err := dec.Decode(&fix); err != nil {
		return nil, errors.New("invalid fix body: " + err.Error())
	}
	if strings.TrimSpace(fix.ID) == "" {
		fix.ID = uuid.NewString()
	}
	if fix.Status == "" {
		fix.Status = fixes.StatusPending
	}
	if err := fix.Validate(); err != nil {
		return nil, err
	}
	return &fix, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
