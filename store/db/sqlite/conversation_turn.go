package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/agenthub/store"
)

func (d *DB) CreateConversationTurns(ctx context.Context, turns []*store.ConversationTurn) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt := `INSERT INTO conversation_turn (uid, session_id, role, content, agents, hold_session, held_by, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, turn := range turns {
		agents, err := store.MarshalAgents(turn.Agents)
		if err != nil {
			return err
		}
		heldBy, err := store.MarshalAgents(turn.HeldBy)
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, stmt,
			turn.UID, turn.SessionID, turn.Role, turn.Content, agents, turn.HoldSession, heldBy, turn.CreatedTs)
		if err != nil {
			return errors.Wrap(err, "failed to insert conversation turn")
		}
		if id, err := result.LastInsertId(); err == nil {
			turn.ID = id
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit conversation turns")
}

func (d *DB) ListConversationTurns(ctx context.Context, find *store.FindConversationTurn) ([]*store.ConversationTurn, error) {
	query := `
		SELECT id, uid, session_id, role, content, agents, hold_session, held_by, created_ts
		FROM conversation_turn
		WHERE session_id = ?
		ORDER BY id DESC`
	args := []any{find.SessionID}
	if find.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversation turns")
	}
	defer rows.Close()

	list := []*store.ConversationTurn{}
	for rows.Next() {
		var turn store.ConversationTurn
		var agents, heldBy string
		if err := rows.Scan(
			&turn.ID,
			&turn.UID,
			&turn.SessionID,
			&turn.Role,
			&turn.Content,
			&agents,
			&turn.HoldSession,
			&heldBy,
			&turn.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation turn")
		}
		if turn.Agents, err = store.UnmarshalAgents(agents); err != nil {
			return nil, err
		}
		if turn.HeldBy, err = store.UnmarshalAgents(heldBy); err != nil {
			return nil, err
		}
		list = append(list, &turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	store.ReverseTurns(list)
	return list, nil
}

func (d *DB) DeleteConversationTurns(ctx context.Context, delete *store.DeleteConversationTurn) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM conversation_turn WHERE session_id = ?`, delete.SessionID); err != nil {
		return errors.Wrap(err, "failed to delete conversation turns")
	}
	return nil
}
