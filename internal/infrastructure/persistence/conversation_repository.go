package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type ConversationRepository struct {
	db *sqlx.DB
}

var _ repository.ConversationRepository = (*ConversationRepository)(nil)

func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `c.id, c.gig_id, c.employer_id, c.freelancer_id, c.last_message_at, c.created_at, c.updated_at`

// unreadExpr считает чужие неудалённые сообщения новее отметки прочтения $1.
const unreadExpr = `(SELECT COUNT(*) FROM messages m
		WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.deleted_at IS NULL
		  AND m.created_at > COALESCE(cp.last_read_at, 'epoch'::timestamptz))`

func (r *ConversationRepository) GetOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	var (
		result  *entity.Conversation
		created bool
	)
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// ON CONFLICT без цели срабатывает на оба частичных уникальных индекса.
		res, err := tx.ExecContext(ctx, `INSERT INTO conversations (id, gig_id, employer_id, freelancer_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`,
			conv.ID, conv.GigID, conv.EmployerID, conv.FreelancerID, conv.CreatedAt, conv.UpdatedAt)
		if err != nil {
			return classify(err, "не удалось создать беседу", nil)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return classify(err, "не удалось создать беседу", nil)
		}

		if n == 1 {
			bi := NewBatchInserter(tx, `INSERT INTO conversation_participants (conversation_id, user_id)`, "", 2, 2)
			if err := bi.Add(ctx, conv.ID, conv.EmployerID); err != nil {
				return err
			}
			if err := bi.Add(ctx, conv.ID, conv.FreelancerID); err != nil {
				return err
			}
			if err := bi.Flush(ctx); err != nil {
				return err
			}
			result, created = conv, true
			return nil
		}

		var row conversationRow
		query := `SELECT ` + conversationColumns + ` FROM conversations c
			WHERE c.employer_id = $1 AND c.freelancer_id = $2 AND c.gig_id IS NOT DISTINCT FROM $3`
		if err := tx.GetContext(ctx, &row, query, conv.EmployerID, conv.FreelancerID, conv.GigID); err != nil {
			return notFoundOr(err, apperror.ErrConversationNotFound, "не удалось получить беседу")
		}
		result = row.toEntity()
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	var row conversationRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+conversationColumns+` FROM conversations c WHERE c.id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrConversationNotFound, "не удалось получить беседу")
	}
	return row.toEntity(), nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*repository.ConversationSummary, error) {
	inner := `SELECT ` + conversationColumns + `,
			g.title AS gig_title,
			` + unreadExpr + ` AS unread_count,
			lm.id AS lm_id, lm.sender_id AS lm_sender_id, lm.body AS lm_body, lm.is_edited AS lm_is_edited,
			lm.edited_at AS lm_edited_at, lm.deleted_at AS lm_deleted_at,
			lm.created_at AS lm_created_at, lm.updated_at AS lm_updated_at
		FROM conversations c
		LEFT JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id = $1
		LEFT JOIN gigs g ON g.id = c.gig_id
		LEFT JOIN LATERAL (
			SELECT m.id, m.sender_id, m.body, m.is_edited, m.edited_at, m.deleted_at, m.created_at, m.updated_at
			FROM messages m
			WHERE m.conversation_id = c.id
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT 1
		) lm ON TRUE
		WHERE c.employer_id = $1 OR c.freelancer_id = $1`

	query := `SELECT * FROM (` + inner + `) s`
	if unreadOnly {
		query += ` WHERE s.unread_count > 0`
	}
	query += ` ORDER BY s.last_message_at DESC NULLS LAST, s.created_at DESC, s.id`

	var rows []conversationSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, classify(err, "не удалось получить беседы", nil)
	}

	otherIDs := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		otherIDs = append(otherIDs, rows[i].toEntity().OtherParticipant(userID))
	}
	others := make(map[uuid.UUID]*entity.User, len(rows))
	if len(otherIDs) > 0 {
		var userRows []userRow
		if err := r.db.SelectContext(ctx, &userRows,
			`SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`, pq.Array(uuidStrings(otherIDs))); err != nil {
			return nil, classify(err, "не удалось получить участников бесед", nil)
		}
		for i := range userRows {
			others[userRows[i].ID] = userRows[i].toEntity()
		}
	}

	summaries := make([]*repository.ConversationSummary, 0, len(rows))
	for i := range rows {
		conv := rows[i].toEntity()
		summaries = append(summaries, &repository.ConversationSummary{
			Conversation: conv,
			OtherUser:    others[conv.OtherParticipant(userID)],
			GigTitle:     nullString(rows[i].GigTitle),
			LastMessage:  rows[i].lastMessage(),
			UnreadCount:  rows[i].UnreadCount,
		})
	}
	return summaries, nil
}

func (r *ConversationRepository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO conversation_participants (conversation_id, user_id, last_read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (conversation_id, user_id) DO UPDATE SET last_read_at = EXCLUDED.last_read_at`,
		conversationID, userID, at)
	return classify(err, "не удалось отметить беседу прочитанной", nil)
}

func (r *ConversationRepository) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	var n int
	query := `SELECT ` + unreadExpr + `
		FROM conversations c
		LEFT JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id = $1
		WHERE c.id = $2`
	if err := r.db.GetContext(ctx, &n, query, userID, conversationID); err != nil {
		return 0, notFoundOr(err, apperror.ErrConversationNotFound, "не удалось посчитать непрочитанные")
	}
	return n, nil
}

type conversationRow struct {
	ID            uuid.UUID     `db:"id"`
	GigID         uuid.NullUUID `db:"gig_id"`
	EmployerID    uuid.UUID     `db:"employer_id"`
	FreelancerID  uuid.UUID     `db:"freelancer_id"`
	LastMessageAt sql.NullTime  `db:"last_message_at"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

func (c *conversationRow) toEntity() *entity.Conversation {
	return &entity.Conversation{
		ID:            c.ID,
		GigID:         nullUUID(c.GigID),
		EmployerID:    c.EmployerID,
		FreelancerID:  c.FreelancerID,
		LastMessageAt: nullTime(c.LastMessageAt),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type conversationSummaryRow struct {
	conversationRow
	GigTitle    sql.NullString `db:"gig_title"`
	UnreadCount int            `db:"unread_count"`
	LMID        uuid.NullUUID  `db:"lm_id"`
	LMSenderID  uuid.NullUUID  `db:"lm_sender_id"`
	LMBody      sql.NullString `db:"lm_body"`
	LMIsEdited  sql.NullBool   `db:"lm_is_edited"`
	LMEditedAt  sql.NullTime   `db:"lm_edited_at"`
	LMDeletedAt sql.NullTime   `db:"lm_deleted_at"`
	LMCreatedAt sql.NullTime   `db:"lm_created_at"`
	LMUpdatedAt sql.NullTime   `db:"lm_updated_at"`
}

func (s *conversationSummaryRow) lastMessage() *entity.Message {
	if !s.LMID.Valid {
		return nil
	}
	return &entity.Message{
		ID:             s.LMID.UUID,
		ConversationID: s.ID,
		SenderID:       s.LMSenderID.UUID,
		Body:           s.LMBody.String,
		IsEdited:       s.LMIsEdited.Bool,
		EditedAt:       nullTime(s.LMEditedAt),
		DeletedAt:      nullTime(s.LMDeletedAt),
		CreatedAt:      s.LMCreatedAt.Time,
		UpdatedAt:      s.LMUpdatedAt.Time,
	}
}

type MessageRepository struct {
	db *sqlx.DB
}

var _ repository.MessageRepository = (*MessageRepository)(nil)

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `m.id, m.conversation_id, m.sender_id, m.body, m.is_edited, m.edited_at, m.deleted_at,
	m.created_at, m.updated_at`

func (r *MessageRepository) Create(ctx context.Context, msg *entity.Message) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO messages (id, conversation_id, sender_id, body, is_edited, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			msg.ID, msg.ConversationID, msg.SenderID, msg.Body, msg.IsEdited, msg.CreatedAt, msg.UpdatedAt)
		if err != nil {
			return classify(err, "не удалось отправить сообщение", nil)
		}
		res, err := tx.ExecContext(ctx, `UPDATE conversations SET last_message_at = $2, updated_at = $2 WHERE id = $1`,
			msg.ConversationID, msg.CreatedAt)
		if err != nil {
			return classify(err, "не удалось обновить беседу", nil)
		}
		return requireAffected(res, apperror.ErrConversationNotFound)
	})
}

func (r *MessageRepository) Update(ctx context.Context, msg *entity.Message) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages
		SET body = $2, is_edited = $3, edited_at = $4, deleted_at = $5, updated_at = $6
		WHERE id = $1`,
		msg.ID, msg.Body, msg.IsEdited, msg.EditedAt, msg.DeletedAt, msg.UpdatedAt)
	if err != nil {
		return classify(err, "не удалось обновить сообщение", nil)
	}
	return requireAffected(res, apperror.ErrMessageNotFound)
}

func (r *MessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	var row messageRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+messageColumns+` FROM messages m WHERE m.id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrMessageNotFound, "не удалось получить сообщение")
	}
	return row.toEntity(), nil
}

// ListByConversation отдаёт страницу от новых к старым; курсор beforeID исключается из выдачи.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, beforeID *uuid.UUID, limit int) ([]*entity.Message, error) {
	var rows []messageRow
	var err error
	if beforeID == nil {
		err = r.db.SelectContext(ctx, &rows, `SELECT `+messageColumns+` FROM messages m
			WHERE m.conversation_id = $1
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $2`, conversationID, limit)
	} else {
		var cursor messageRow
		cerr := r.db.GetContext(ctx, &cursor, `SELECT `+messageColumns+` FROM messages m
			WHERE m.id = $1 AND m.conversation_id = $2`, *beforeID, conversationID)
		if errors.Is(cerr, sql.ErrNoRows) {
			return nil, apperror.Validation(apperror.FieldError{Field: "before_id", Message: "сообщение для курсора не найдено"})
		}
		if cerr != nil {
			return nil, classify(cerr, "не удалось получить сообщения", nil)
		}
		err = r.db.SelectContext(ctx, &rows, `SELECT `+messageColumns+` FROM messages m
			WHERE m.conversation_id = $1 AND (m.created_at, m.id) < ($2, $3)
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $4`, conversationID, cursor.CreatedAt, cursor.ID, limit)
	}
	if err != nil {
		return nil, classify(err, "не удалось получить сообщения", nil)
	}
	messages := make([]*entity.Message, len(rows))
	for i := range rows {
		messages[i] = rows[i].toEntity()
	}
	return messages, nil
}

type messageRow struct {
	ID             uuid.UUID    `db:"id"`
	ConversationID uuid.UUID    `db:"conversation_id"`
	SenderID       uuid.UUID    `db:"sender_id"`
	Body           string       `db:"body"`
	IsEdited       bool         `db:"is_edited"`
	EditedAt       sql.NullTime `db:"edited_at"`
	DeletedAt      sql.NullTime `db:"deleted_at"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (m *messageRow) toEntity() *entity.Message {
	return &entity.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		IsEdited:       m.IsEdited,
		EditedAt:       nullTime(m.EditedAt),
		DeletedAt:      nullTime(m.DeletedAt),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
