package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sidequest-app/sidequest/internal/app/profile"
	"github.com/sidequest-app/sidequest/internal/domain"
)

// ─── Users ──────────────────────────────────────────────────────────────────

type createUserRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	u, err := s.profiles.CreateUser(req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.profiles.ListUsers()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.profiles.GetUser(chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	st, err := s.profiles.StreakStatus(chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type grantSaversRequest struct {
	Count int `json:"count"`
}

func (s *Server) handleGrantSavers(w http.ResponseWriter, r *http.Request) {
	req := grantSaversRequest{Count: 1}
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	u, err := s.profiles.GrantStreakSavers(chi.URLParam(r, "userID"), req.Count)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	res, err := s.profiles.ApplyWeeklyDecay(chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.profiles.History(chi.URLParam(r, "userID"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	t, err := s.profiles.Totals(chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := s.profiles.Badges(chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"badges": badges})
}

// ─── Quests ─────────────────────────────────────────────────────────────────

func (s *Server) handleListQuests(w http.ResponseWriter, r *http.Request) {
	status := domain.QuestStatus(r.URL.Query().Get("status"))
	quests, err := s.profiles.ListQuests(chi.URLParam(r, "userID"), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if quests == nil {
		quests = []domain.Quest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"quests": quests})
}

func (s *Server) handleCreateQuest(w http.ResponseWriter, r *http.Request) {
	var in profile.QuestInput
	if err := decodeBody(r, &in); err != nil {
		writeDomainError(w, err)
		return
	}
	q, err := s.profiles.CreateQuest(chi.URLParam(r, "userID"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleArchiveQuest(w http.ResponseWriter, r *http.Request) {
	err := s.profiles.ArchiveQuest(chi.URLParam(r, "userID"), chi.URLParam(r, "questID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req profile.CompleteRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	out, err := s.profiles.CompleteQuest(chi.URLParam(r, "userID"), chi.URLParam(r, "questID"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if out.ProofID != "" {
		status = http.StatusAccepted
	}
	writeJSON(w, status, out)
}

// ─── Chests ─────────────────────────────────────────────────────────────────

func (s *Server) handleListChests(w http.ResponseWriter, r *http.Request) {
	available := r.URL.Query().Get("available") == "true"
	chests, err := s.profiles.ListChests(chi.URLParam(r, "userID"), available)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if chests == nil {
		chests = []domain.LootChest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chests": chests})
}

type grantChestRequest struct {
	Kind domain.ChestKind `json:"kind"`
}

func (s *Server) handleGrantChest(w http.ResponseWriter, r *http.Request) {
	req := grantChestRequest{Kind: domain.ChestGeneric}
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	c, err := s.profiles.GrantChest(chi.URLParam(r, "userID"), req.Kind)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleOpenChest(w http.ResponseWriter, r *http.Request) {
	out, err := s.profiles.OpenChest(chi.URLParam(r, "userID"), chi.URLParam(r, "chestID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ─── Spot Checks ────────────────────────────────────────────────────────────

func (s *Server) handleListProofs(w http.ResponseWriter, r *http.Request) {
	proofs, err := s.profiles.PendingProofs(chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if proofs == nil {
		proofs = []domain.PendingProof{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"proofs": proofs})
}

func (s *Server) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	var evidence domain.VerificationPayload
	if err := decodeBody(r, &evidence); err != nil {
		writeDomainError(w, err)
		return
	}
	out, err := s.profiles.SubmitProof(chi.URLParam(r, "userID"), chi.URLParam(r, "proofID"), evidence)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRejectProof(w http.ResponseWriter, r *http.Request) {
	out, err := s.profiles.RejectProof(chi.URLParam(r, "userID"), chi.URLParam(r, "proofID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
