package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"solana-promo-agent/internal/alerts"
	"solana-promo-agent/internal/observability"
	"solana-promo-agent/internal/storage"
	"solana-promo-agent/internal/tracker"
	"solana-promo-agent/internal/treasury"
)

// apiServer is the read-only projection of agent state. Everything it
// serves comes from the same stores the cycle writes; the only mutation
// it accepts is alert dismissal.
type apiServer struct {
	tracker  *tracker.Tracker
	treasury *treasury.Treasury
	alerts   *alerts.Scorer
	rewards  storage.RewardStore
	log      *logrus.Entry
}

func newAPIServer(t *tracker.Tracker, tr *treasury.Treasury, a *alerts.Scorer, rewards storage.RewardStore, log *logrus.Entry) *apiServer {
	return &apiServer{tracker: t, treasury: tr, alerts: a, rewards: rewards, log: log}
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/ledger", s.handleLedger)
	mux.HandleFunc("/api/campaigns", s.handleCampaigns)
	mux.HandleFunc("/api/analytics", s.handleAnalytics)
	mux.HandleFunc("/api/rewards", s.handleRewards)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/alerts/", s.handleAlertDismiss)
	return mux
}

func (s *apiServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("response encode failed")
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tracker.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, struct {
		Treasury  treasury.Summary `json:"treasury"`
		Campaigns tracker.Stats    `json:"campaigns"`
	}{s.treasury.Summarize(), stats})
}

func (s *apiServer) handleLedger(w http.ResponseWriter, r *http.Request) {
	journal, err := s.treasury.Journal(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, journal)
}

func (s *apiServer) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	all, err := s.tracker.All(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, all)
}

func (s *apiServer) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.tracker.Analytics(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, analytics)
}

func (s *apiServer) handleRewards(w http.ResponseWriter, r *http.Request) {
	all, err := s.rewards.GetAll(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, all)
}

func (s *apiServer) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("all") == "true" {
		s.writeJSON(w, s.alerts.All())
		return
	}
	s.writeJSON(w, s.alerts.Active())
}

// handleAlertDismiss serves POST /api/alerts/{id}/dismiss.
func (s *apiServer) handleAlertDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
	id, ok := strings.CutSuffix(rest, "/dismiss")
	if !ok || id == "" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := s.alerts.Dismiss(id); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.WithField("alert_id", id).Info("alert dismissed")
	s.writeJSON(w, map[string]string{"status": "dismissed"})
}
