package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mixfield/songdraft/go/internal/models"
	"github.com/mixfield/songdraft/go/internal/sqlutil"
)

// PostgresStore is the durable StateStore. The compare-and-set is a guarded
// UPDATE on the versioned draft_states row; the claim append and the outbox
// rows land in the same transaction, so a commit is all-or-nothing.
type PostgresStore struct {
	db *sql.DB
}

// NotifyChannel is the pg_notify channel poked after each commit that
// recorded outbox events, so the relay wakes without waiting for its poll.
const NotifyChannel = "draft_outbox_events"

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) CreateGroup(ctx context.Context, group models.Group) error {
	return sqlutil.Run(ctx, p.db, func(txn *sql.Tx) error {
		_, err := txn.ExecContext(ctx,
			`INSERT INTO groups (id, name, participant_ids, rounds, time_per_pick_sec, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			group.ID, group.Name, pq.Array(group.ParticipantIDs), group.Rounds,
			group.TimePerPickSec, group.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		_, err = txn.ExecContext(ctx,
			`INSERT INTO draft_states (group_id, status, current_turn_index, current_round, picks_made, version)
			 VALUES ($1, $2, 0, 1, 0, 1)`,
			group.ID, models.DraftStatusNotStarted)
		if err != nil {
			return fmt.Errorf("failed to insert draft state: %w", err)
		}
		return nil
	})
}

func (p *PostgresStore) GetGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	var group models.Group
	var participantIDs pq.StringArray

	err := p.db.QueryRowContext(ctx,
		`SELECT id, name, participant_ids, rounds, time_per_pick_sec, created_at
		 FROM groups WHERE id = $1`, groupID).
		Scan(&group.ID, &group.Name, &participantIDs, &group.Rounds,
			&group.TimePerPickSec, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.ParticipantIDs = make([]uuid.UUID, len(participantIDs))
	for i, raw := range participantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid participant id %q: %w", raw, err)
		}
		group.ParticipantIDs[i] = id
	}
	return &group, nil
}

func (p *PostgresStore) GetState(ctx context.Context, groupID uuid.UUID) (models.DraftState, int64, error) {
	var state models.DraftState
	var version int64
	var startedAt, completedAt, turnStartedAt sql.NullTime

	err := p.db.QueryRowContext(ctx,
		`SELECT status, current_turn_index, current_round, picks_made,
		        started_at, completed_at, turn_started_at, version
		 FROM draft_states WHERE group_id = $1`, groupID).
		Scan(&state.Status, &state.CurrentTurnIndex, &state.CurrentRound,
			&state.PicksMade, &startedAt, &completedAt, &turnStartedAt, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DraftState{}, 0, ErrNotFound
	}
	if err != nil {
		return models.DraftState{}, 0, fmt.Errorf("failed to get draft state: %w", err)
	}

	state.StartedAt = sqlutil.FromSqlTime(startedAt)
	state.CompletedAt = sqlutil.FromSqlTime(completedAt)
	state.TurnStartedAt = sqlutil.FromSqlTime(turnStartedAt)
	return state, version, nil
}

func (p *PostgresStore) CompareAndSet(ctx context.Context, groupID uuid.UUID, expectedVersion int64, state models.DraftState, claim *models.Claim, events ...OutboxEvent) error {
	return sqlutil.Run(ctx, p.db, func(txn *sql.Tx) error {
		res, err := txn.ExecContext(ctx,
			`UPDATE draft_states
			 SET status = $1, current_turn_index = $2, current_round = $3, picks_made = $4,
			     started_at = $5, completed_at = $6, turn_started_at = $7, version = version + 1
			 WHERE group_id = $8 AND version = $9`,
			state.Status, state.CurrentTurnIndex, state.CurrentRound, state.PicksMade,
			sqlutil.ToSqlTime(state.StartedAt), sqlutil.ToSqlTime(state.CompletedAt),
			sqlutil.ToSqlTime(state.TurnStartedAt), groupID, expectedVersion)
		if err != nil {
			return fmt.Errorf("failed to update draft state: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if rows == 0 {
			// Either the version moved or the group never existed.
			var exists bool
			if err := txn.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM draft_states WHERE group_id = $1)`, groupID).
				Scan(&exists); err != nil {
				return fmt.Errorf("failed to check draft state existence: %w", err)
			}
			if !exists {
				return ErrNotFound
			}
			return ErrVersionConflict
		}

		if claim != nil {
			_, err = txn.ExecContext(ctx,
				`INSERT INTO claims (id, group_id, participant_id, song_id, round, pick,
				                     overall_pick, auto_pick, time_used_ms, made_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				claim.ID, claim.GroupID, claim.ParticipantID, claim.SongID, claim.Round,
				claim.Pick, claim.OverallPick, claim.AutoPick,
				claim.TimeUsed.Milliseconds(), claim.MadeAt)
			if err != nil {
				var pqErr *pq.Error
				if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
					return ErrSongTaken
				}
				return fmt.Errorf("failed to append claim: %w", err)
			}
		}

		for _, event := range events {
			_, err = txn.ExecContext(ctx,
				`INSERT INTO draft_outbox (group_id, event_type, payload) VALUES ($1, $2, $3)`,
				groupID, event.Kind, []byte(event.Payload))
			if err != nil {
				return fmt.Errorf("failed to insert outbox event: %w", err)
			}
		}
		if len(events) > 0 {
			if _, err = txn.ExecContext(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, groupID.String()); err != nil {
				return fmt.Errorf("failed to notify outbox channel: %w", err)
			}
		}
		return nil
	})
}

func (p *PostgresStore) ListClaims(ctx context.Context, groupID uuid.UUID) ([]models.Claim, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, group_id, participant_id, song_id, round, pick, overall_pick,
		        auto_pick, time_used_ms, made_at
		 FROM claims WHERE group_id = $1 ORDER BY overall_pick`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []models.Claim
	for rows.Next() {
		var claim models.Claim
		var timeUsedMs int64
		if err := rows.Scan(&claim.ID, &claim.GroupID, &claim.ParticipantID,
			&claim.SongID, &claim.Round, &claim.Pick, &claim.OverallPick,
			&claim.AutoPick, &timeUsedMs, &claim.MadeAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claim.TimeUsed = time.Duration(timeUsedMs) * time.Millisecond
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}
	return claims, nil
}
