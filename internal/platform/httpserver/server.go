package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	delegationregistry "liquidvote/contexts/decision-core/delegation-registry"
	delegationerrors "liquidvote/contexts/decision-core/delegation-registry/domain/errors"
	delegationhttp "liquidvote/contexts/decision-core/delegation-registry/transport/http"
	voteengine "liquidvote/contexts/decision-core/vote-engine"
	voteerrors "liquidvote/contexts/decision-core/vote-engine/domain/errors"
	votehttp "liquidvote/contexts/decision-core/vote-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "liquidvote/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	votes       voteengine.Module
	delegations delegationregistry.Module
}

type Options struct {
	Addr            string
	EnableSwaggerUI bool
}

func New(
	votes voteengine.Module,
	delegations delegationregistry.Module,
	logger *slog.Logger,
	opts Options,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        opts.Addr,
		votes:       votes,
		delegations: delegations,
	}
	s.registerRoutes(opts.EnableSwaggerUI)
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes(enableSwaggerUI bool) {
	if enableSwaggerUI {
		s.mux.Handle("/swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	s.mux.HandleFunc("POST /api/decision/v1/delegations", s.handleCreateDelegation)
	s.mux.HandleFunc("GET /api/decision/v1/delegations", s.handleListDelegations)
	s.mux.HandleFunc("DELETE /api/decision/v1/delegations/{delegation_id}", s.handleRevokeDelegation)

	s.mux.HandleFunc("POST /api/decision/v1/polls/{poll_id}/votes", s.handleSubmitVote)
	s.mux.HandleFunc("GET /api/decision/v1/polls/{poll_id}/votes/me", s.handleUserVote)
	s.mux.HandleFunc("GET /api/decision/v1/polls/{poll_id}/results", s.handlePollResults)
}

func (s *Server) handleCreateDelegation(w http.ResponseWriter, r *http.Request) {
	followerID := resolveUserID(r)
	if followerID == "" {
		writeDelegationError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req delegationhttp.CreateDelegationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDelegationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.delegations.Handler.CreateDelegationHandler(
		r.Context(),
		followerID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeDelegationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDelegations(w http.ResponseWriter, r *http.Request) {
	followerID := resolveUserID(r)
	if followerID == "" {
		writeDelegationError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.delegations.Handler.ListDelegationsHandler(r.Context(), followerID)
	if err != nil {
		writeDelegationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevokeDelegation(w http.ResponseWriter, r *http.Request) {
	followerID := resolveUserID(r)
	if followerID == "" {
		writeDelegationError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	delegationID := r.PathValue("delegation_id")
	if err := s.delegations.Handler.RevokeDelegationHandler(r.Context(), delegationID, followerID); err != nil {
		writeDelegationDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	if userID == "" {
		writeVoteError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req votehttp.SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVoteError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.votes.Handler.SubmitVoteHandler(
		r.Context(),
		r.PathValue("poll_id"),
		userID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserVote(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	if userID == "" {
		writeVoteError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.votes.Handler.UserVoteHandler(r.Context(), r.PathValue("poll_id"), userID)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePollResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.votes.Handler.PollResultsHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeVoteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, voteerrors.ErrPollNotFound):
		writeVoteError(w, http.StatusNotFound, "poll_not_found", err.Error())
	case errors.Is(err, voteerrors.ErrVoteNotFound):
		writeVoteError(w, http.StatusNotFound, "vote_not_found", err.Error())
	case errors.Is(err, voteerrors.ErrPollClosed):
		writeVoteError(w, http.StatusConflict, "poll_closed", err.Error())
	case errors.Is(err, voteerrors.ErrInvalidChoice),
		errors.Is(err, voteerrors.ErrInvalidVoteInput):
		writeVoteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, voteerrors.ErrUnauthorizedDelegate):
		writeVoteError(w, http.StatusForbidden, "unauthorized_delegate", err.Error())
	case errors.Is(err, voteerrors.ErrDirectVoteProtected):
		writeVoteError(w, http.StatusConflict, "direct_vote_protected", err.Error())
	case errors.Is(err, voteerrors.ErrVoteConflict),
		errors.Is(err, voteerrors.ErrIdempotencyConflict):
		writeVoteError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, voteerrors.ErrIdempotencyKeyRequired):
		writeVoteError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	default:
		writeVoteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDelegationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, delegationerrors.ErrSelfDelegation):
		writeDelegationError(w, http.StatusUnprocessableEntity, "self_delegation", err.Error())
	case errors.Is(err, delegationerrors.ErrInvalidDelegationInput):
		writeDelegationError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, delegationerrors.ErrDelegationNotFound):
		writeDelegationError(w, http.StatusNotFound, "delegation_not_found", err.Error())
	case errors.Is(err, delegationerrors.ErrNotDelegationOwner):
		writeDelegationError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, delegationerrors.ErrDelegationExists),
		errors.Is(err, delegationerrors.ErrIdempotencyConflict):
		writeDelegationError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, delegationerrors.ErrIdempotencyKeyRequired):
		writeDelegationError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	default:
		writeDelegationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVoteError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeDelegationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, delegationhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveUserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}
