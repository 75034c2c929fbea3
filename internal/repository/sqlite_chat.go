package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reloved/marketplace/internal/domain"
)

// CreateConversation creates a new conversation.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	metadata := ""
	if conv.Metadata != nil {
		metadata = string(conv.Metadata)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (conversation_id, user_id, created_at, metadata) VALUES (?, ?, ?, ?)`,
		conv.ConversationID, conv.UserID, conv.CreatedAt, nullString(metadata))
	return err
}

// GetConversation retrieves a conversation by ID.
func (s *SQLiteStore) GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	var metadata sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT conversation_id, user_id, created_at, metadata FROM conversations WHERE conversation_id = ?`,
		conversationID).Scan(&conv.ConversationID, &conv.UserID, &conv.CreatedAt, &metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if metadata.Valid {
		conv.Metadata = json.RawMessage(metadata.String)
	}
	return &conv, nil
}

// CreateChatMessage stores one conversation turn.
func (s *SQLiteStore) CreateChatMessage(ctx context.Context, msg *domain.ChatMessage) error {
	payload := ""
	if msg.ToolPayload != nil {
		payload = string(msg.ToolPayload)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (message_id, conversation_id, role, content, tool_name, tool_payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.MessageID, msg.ConversationID, msg.Role, msg.Content,
		nullString(msg.ToolName), nullString(payload), msg.CreatedAt)
	return err
}

// GetChatMessages retrieves a conversation's messages, oldest first.
func (s *SQLiteStore) GetChatMessages(ctx context.Context, conversationID string, limit int) ([]domain.ChatMessage, error) {
	query := `SELECT message_id, conversation_id, role, content, tool_name, tool_payload, created_at
		 FROM chat_messages WHERE conversation_id = ? ORDER BY created_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		var toolName, toolPayload sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.ConversationID, &msg.Role, &msg.Content,
			&toolName, &toolPayload, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if toolName.Valid {
			msg.ToolName = toolName.String
		}
		if toolPayload.Valid {
			msg.ToolPayload = json.RawMessage(toolPayload.String)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreatePlan stores a pending action plan.
func (s *SQLiteStore) CreatePlan(ctx context.Context, plan *domain.PendingPlan) error {
	actions, err := json.Marshal(plan.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal plan actions: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_plans (plan_id, conversation_id, user_id, actions, status, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plan.PlanID, plan.ConversationID, plan.UserID, string(actions), plan.Status,
		plan.CreatedAt, plan.ExpiresAt)
	return err
}

// GetPlan retrieves a pending plan by ID.
func (s *SQLiteStore) GetPlan(ctx context.Context, planID string) (*domain.PendingPlan, error) {
	var plan domain.PendingPlan
	var actions string
	var decidedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT plan_id, conversation_id, user_id, actions, status, created_at, expires_at, decided_at
		 FROM pending_plans WHERE plan_id = ?`,
		planID).Scan(&plan.PlanID, &plan.ConversationID, &plan.UserID, &actions, &plan.Status,
		&plan.CreatedAt, &plan.ExpiresAt, &decidedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(actions), &plan.Actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan actions: %w", err)
	}
	if decidedAt.Valid {
		plan.DecidedAt = &decidedAt.Time
	}
	return &plan, nil
}

// LatestPendingPlan retrieves the newest still-pending plan in a
// conversation, or nil. Lets "confirm"/"cancel" chat turns resolve without
// the client echoing the plan ID back.
func (s *SQLiteStore) LatestPendingPlan(ctx context.Context, conversationID string) (*domain.PendingPlan, error) {
	var planID string
	err := s.db.QueryRowContext(ctx,
		`SELECT plan_id FROM pending_plans WHERE conversation_id = ? AND status = 'pending'
		 ORDER BY created_at DESC LIMIT 1`, conversationID).Scan(&planID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetPlan(ctx, planID)
}

// DecidePlanIfPending moves a plan out of pending. A false return means the
// plan had already been decided (or expired).
func (s *SQLiteStore) DecidePlanIfPending(ctx context.Context, planID string, status domain.PlanStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_plans SET status = ?, decided_at = ? WHERE plan_id = ? AND status = 'pending'`,
		status, time.Now(), planID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// AppendDealEvent stores one logistics audit entry.
func (s *SQLiteStore) AppendDealEvent(ctx context.Context, event *domain.DealEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deal_events (event_id, negotiation_id, status, note, actor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.EventID, event.NegotiationID, event.Status, nullString(event.Note),
		event.ActorID, event.CreatedAt)
	return err
}

// ListDealEvents retrieves a negotiation's deal history, oldest first.
func (s *SQLiteStore) ListDealEvents(ctx context.Context, negotiationID string) ([]domain.DealEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, negotiation_id, status, note, actor_id, created_at
		 FROM deal_events WHERE negotiation_id = ? ORDER BY created_at ASC`, negotiationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.DealEvent
	for rows.Next() {
		var event domain.DealEvent
		var note sql.NullString
		if err := rows.Scan(&event.EventID, &event.NegotiationID, &event.Status, &note,
			&event.ActorID, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Note = note.String
		events = append(events, event)
	}
	return events, rows.Err()
}
