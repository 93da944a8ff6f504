package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"palavraviva/pkg/ai"
	"palavraviva/pkg/domain"
	"palavraviva/pkg/payments"
)

// Function endpoints mirror the hosted-function call shape: JSON body
// in, JSON out, bearer token auth, permissive CORS (applied by the
// router middleware).

func (s *Server) handleCheckSubscription(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sub, err := s.app.CheckSubscription(r.Context(), user)
	if err != nil {
		s.audit(r, "api.subscription.check", "fail", "user_id", user.ID)
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionResponse{
		Subscribed:      sub.Subscribed,
		Tier:            sub.Tier,
		SubscriptionEnd: sub.SubscriptionEnd,
	})
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allow(s.checkoutLimiter, r, "api.checkout") {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	url, err := s.app.CreateCheckout(r.Context(), user)
	if err != nil {
		s.audit(r, "api.checkout", "fail", "user_id", user.ID)
		s.writeAppError(w, err)
		return
	}
	s.audit(r, "api.checkout", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleCustomerPortal(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	url, err := s.app.CustomerPortal(r.Context(), user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleGenerateVerse(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		jobID := strings.TrimSpace(r.URL.Query().Get("job"))
		if jobID == "" {
			writeError(w, http.StatusBadRequest, "job query parameter required")
			return
		}
		status, found, err := s.app.GenerationJobStatus(r.Context(), jobID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeJSON(w, http.StatusOK, status)
	case http.MethodPost:
		var req generateRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Count < 1 || req.Count > 10 {
			writeError(w, http.StatusBadRequest, "count must be between 1 and 10")
			return
		}
		if req.Async {
			status, err := s.app.EnqueueGeneration(r.Context(), user.ID, req.Count)
			if err != nil {
				s.writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusAccepted, status)
			return
		}
		batch, err := s.app.GenerateVerses(r.Context(), user.ID, req.Count)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		// A partial batch is still a success: everything generated so
		// far was persisted, Complete tells the client it stopped early.
		writeJSON(w, http.StatusOK, batch)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFixUserStats(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	profile, err := s.app.RefreshStats(user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePublicStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	stats, err := s.app.AggregateStats(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func isUpstream(err error) bool {
	return errors.Is(err, payments.ErrUnavailable) || errors.Is(err, ai.ErrQuotaExceeded)
}

type generateRequest struct {
	Count int  `json:"count"`
	Async bool `json:"async"`
}

type subscriptionResponse struct {
	Subscribed      bool        `json:"subscribed"`
	Tier            domain.Tier `json:"tier"`
	SubscriptionEnd *time.Time  `json:"subscriptionEnd"`
}
