// Package profile is the caller-owned state store around the progression
// engine. It loads a user's snapshot, runs the engine and persists the
// result in one SQLite transaction, one writer per user at a time.
package profile

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sidequest-app/sidequest/internal/app/engagement"
	"github.com/sidequest-app/sidequest/internal/app/ledger"
	"github.com/sidequest-app/sidequest/internal/domain"
	"github.com/sidequest-app/sidequest/internal/infra/sqlite"
)

// Config tunes the service.
type Config struct {
	// StarterQuests is the number of catalog quests seeded for new users.
	StarterQuests int

	// Location is the wall clock calendar days are measured in.
	// Nil means time.Local.
	Location *time.Location

	// Now is injectable for testing. Defaults to time.Now.
	Now func() time.Time
}

// Service manages users and applies engine results to storage.
type Service struct {
	db     *sqlite.DB
	engine *engagement.Engine
	ledger *ledger.Service
	rng    domain.RandomSource
	cfg    Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a profile service.
func NewService(db *sqlite.DB, engine *engagement.Engine, rng domain.RandomSource, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Service{
		db:     db,
		engine: engine,
		ledger: ledger.NewService(db),
		rng:    rng,
		cfg:    cfg,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Engine returns the progression engine the service drives.
func (s *Service) Engine() *engagement.Engine { return s.engine }

func (s *Service) now() time.Time {
	return s.cfg.Now().In(s.cfg.Location)
}

// lockFor returns the single-writer lock of a user.
func (s *Service) lockFor(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// withUser runs fn for a loaded user inside a transaction while holding
// the user's write lock.
func (s *Service) withUser(userID string, fn func(tx *sqlite.Store, u *domain.User) error) error {
	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	return s.db.InTx(func(tx *sqlite.Store) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		return fn(tx, u)
	})
}

// ─── Users ──────────────────────────────────────────────────────────────────

// CreateUser registers a user with a fresh snapshot and seeds starter quests.
func (s *Service) CreateUser(name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.InvalidInputError{Field: "name", Reason: "is required"}
	}

	now := s.now()
	u := domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Snapshot:  domain.NewSnapshot(),
		DecayWeek: engagement.ISOWeek(now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.InTx(func(tx *sqlite.Store) error {
		if err := tx.InsertUser(u); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		for _, tmpl := range engagement.PickStarterQuests(s.rng, s.cfg.StarterQuests) {
			q := domain.Quest{
				ID:            uuid.NewString(),
				UserID:        u.ID,
				Title:         tmpl.Title,
				Difficulty:    tmpl.Difficulty,
				Category:      tmpl.Category,
				Signals:       tmpl.Signals,
				CooldownHours: tmpl.CooldownHours,
				Status:        domain.QuestActive,
				CreatedAt:     now,
			}
			if err := tx.InsertQuest(q); err != nil {
				return fmt.Errorf("seed quest %q: %w", tmpl.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": u.ID, "name": u.Name}).Info("user created")
	return &u, nil
}

// GetUser returns a user with its current snapshot.
func (s *Service) GetUser(userID string) (*domain.User, error) {
	return s.db.GetUser(userID)
}

// ListUsers returns every user.
func (s *Service) ListUsers() ([]domain.User, error) {
	return s.db.ListUsers()
}

// MaxStreakSavers caps the savers a user can hold.
const MaxStreakSavers = 99

// GrantStreakSavers adds streak savers to a user's inventory.
func (s *Service) GrantStreakSavers(userID string, n int) (*domain.User, error) {
	if n < 1 || n > MaxStreakSavers {
		return nil, &domain.InvalidInputError{Field: "count", Reason: fmt.Sprintf("must be within [1,%d]", MaxStreakSavers)}
	}
	var out *domain.User
	err := s.withUser(userID, func(tx *sqlite.Store, u *domain.User) error {
		if u.Snapshot.StreakSavers > MaxStreakSavers-n {
			return &domain.InvalidInputError{
				Field:  "count",
				Reason: fmt.Sprintf("would hold more than %d savers", MaxStreakSavers),
			}
		}
		u.Snapshot.StreakSavers += n
		u.UpdatedAt = s.now()
		out = u
		return tx.SaveSnapshot(u.ID, u.Snapshot, u.DecayWeek, u.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StreakStatus reports the streak state a UI needs to offer a saver.
func (s *Service) StreakStatus(userID string) (domain.StreakStatus, error) {
	u, err := s.db.GetUser(userID)
	if err != nil {
		return domain.StreakStatus{}, err
	}
	return s.engine.Streaks().Status(u.Snapshot, s.now()), nil
}

// ─── Quests ─────────────────────────────────────────────────────────────────

// QuestInput is what a user supplies to create a quest.
type QuestInput struct {
	Title         string                      `json:"title"`
	Difficulty    domain.Difficulty           `json:"difficulty"`
	Category      string                      `json:"category"`
	Signals       []domain.VerificationSignal `json:"signals"`
	CooldownHours int                         `json:"cooldown_hours"`
	BaseXP        int64                       `json:"base_xp"`
	BaseGold      int64                       `json:"base_gold"`
}

// CreateQuest adds a quest for a user.
func (s *Service) CreateQuest(userID string, in QuestInput) (*domain.Quest, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Difficulty == "" {
		in.Difficulty = domain.DifficultyStandard
	}
	switch {
	case in.Title == "":
		return nil, &domain.InvalidInputError{Field: "title", Reason: "is required"}
	case !in.Difficulty.Valid():
		return nil, &domain.InvalidInputError{Field: "difficulty", Reason: fmt.Sprintf("unknown difficulty %q", in.Difficulty)}
	case in.CooldownHours < 0:
		return nil, &domain.InvalidInputError{Field: "cooldown_hours", Reason: "must be ≥ 0"}
	case in.BaseXP < 0 || in.BaseGold < 0:
		return nil, &domain.InvalidInputError{Field: "base_rewards", Reason: "must be ≥ 0"}
	case in.BaseXP > domain.MaxQuestBaseReward || in.BaseGold > domain.MaxQuestBaseReward:
		return nil, &domain.InvalidInputError{Field: "base_rewards", Reason: fmt.Sprintf("must be ≤ %d", domain.MaxQuestBaseReward)}
	}
	for _, sig := range in.Signals {
		if !sig.Valid() {
			return nil, &domain.InvalidInputError{Field: "signals", Reason: fmt.Sprintf("unknown signal %q", sig)}
		}
	}

	if _, err := s.db.GetUser(userID); err != nil {
		return nil, err
	}

	q := domain.Quest{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         in.Title,
		Difficulty:    in.Difficulty,
		Category:      in.Category,
		Signals:       in.Signals,
		CooldownHours: in.CooldownHours,
		BaseXP:        in.BaseXP,
		BaseGold:      in.BaseGold,
		Status:        domain.QuestActive,
		CreatedAt:     s.now(),
	}
	if err := s.db.InsertQuest(q); err != nil {
		return nil, fmt.Errorf("insert quest: %w", err)
	}
	log.WithFields(log.Fields{"user_id": userID, "quest_id": q.ID}).Debug("quest created")
	return &q, nil
}

// ListQuests returns a user's quests. An empty status lists all of them.
func (s *Service) ListQuests(userID string, status domain.QuestStatus) ([]domain.Quest, error) {
	if _, err := s.db.GetUser(userID); err != nil {
		return nil, err
	}
	return s.db.ListQuests(userID, status)
}

// ArchiveQuest retires a quest.
func (s *Service) ArchiveQuest(userID, questID string) error {
	return s.db.ArchiveQuest(userID, questID)
}

// ─── History ────────────────────────────────────────────────────────────────

// History returns a user's most recent reward log entries.
func (s *Service) History(userID string, limit int) ([]domain.LogEntry, error) {
	if _, err := s.db.GetUser(userID); err != nil {
		return nil, err
	}
	return s.ledger.History(userID, limit)
}

// Totals rebuilds a user's lifetime earnings from the reward log.
func (s *Service) Totals(userID string) (ledger.Totals, error) {
	if _, err := s.db.GetUser(userID); err != nil {
		return ledger.Totals{}, err
	}
	return s.ledger.Totals(userID)
}
