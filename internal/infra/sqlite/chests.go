package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// ─── Loot Chests ────────────────────────────────────────────────────────────

const chestColumns = `id, user_id, kind, tier, rewards, opened, created_at, opened_at`

// InsertChest stores an unopened chest.
func (s *Store) InsertChest(c domain.LootChest) error {
	raw, err := json.Marshal(c.Rewards)
	if err != nil {
		return fmt.Errorf("encode chest rewards: %w", err)
	}
	_, err = s.q.Exec(
		`INSERT INTO chests (`+chestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, string(c.Kind), string(c.Tier), string(raw), c.Opened,
		c.CreatedAt.Unix(), nullableUnix(c.OpenedAt),
	)
	return err
}

// GetChest retrieves a chest owned by userID.
func (s *Store) GetChest(userID, id string) (*domain.LootChest, error) {
	row := s.q.QueryRow(
		`SELECT `+chestColumns+` FROM chests WHERE user_id = ? AND id = ?`, userID, id,
	)
	return scanChest(row)
}

// ListChests returns the user's chests, newest first. With unopenedOnly
// only the chests still available to open are returned.
func (s *Store) ListChests(userID string, unopenedOnly bool) ([]domain.LootChest, error) {
	query := `SELECT ` + chestColumns + ` FROM chests WHERE user_id = ?`
	if unopenedOnly {
		query += ` AND opened = 0`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.q.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chests []domain.LootChest
	for rows.Next() {
		c, err := scanChest(rows)
		if err != nil {
			return nil, err
		}
		chests = append(chests, *c)
	}
	return chests, rows.Err()
}

// MarkChestOpened flips a chest to opened. Opening twice is rejected.
func (s *Store) MarkChestOpened(userID, id string, at time.Time) error {
	result, err := s.q.Exec(
		`UPDATE chests SET opened = 1, opened_at = ? WHERE user_id = ? AND id = ? AND opened = 0`,
		at.Unix(), userID, id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		if _, err := s.GetChest(userID, id); err != nil {
			return err
		}
		return domain.ErrChestOpened
	}
	return nil
}

// UpdateChestContents replaces the tier and rewards of an unopened chest.
func (s *Store) UpdateChestContents(c domain.LootChest) error {
	raw, err := json.Marshal(c.Rewards)
	if err != nil {
		return fmt.Errorf("encode chest rewards: %w", err)
	}
	result, err := s.q.Exec(
		`UPDATE chests SET tier = ?, rewards = ? WHERE user_id = ? AND id = ? AND opened = 0`,
		string(c.Tier), string(raw), c.UserID, c.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		if _, err := s.GetChest(c.UserID, c.ID); err != nil {
			return err
		}
		return domain.ErrChestOpened
	}
	return nil
}

// OpenedChestCount returns how many chests the user has opened.
func (s *Store) OpenedChestCount(userID string) (int, error) {
	var count int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM chests WHERE user_id = ? AND opened = 1`, userID).Scan(&count)
	return count, err
}

func scanChest(sc scanner) (*domain.LootChest, error) {
	var c domain.LootChest
	var kind, tier, raw string
	var createdAt int64
	var openedAt sql.NullInt64

	err := sc.Scan(&c.ID, &c.UserID, &kind, &tier, &raw, &c.Opened, &createdAt, &openedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrChestNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &c.Rewards); err != nil {
		return nil, fmt.Errorf("decode chest %s: %w", c.ID, err)
	}
	c.Kind = domain.ChestKind(kind)
	c.Tier = domain.Rarity(tier)
	c.CreatedAt = time.Unix(createdAt, 0)
	c.OpenedAt = fromNullableUnix(openedAt)
	return &c, nil
}
