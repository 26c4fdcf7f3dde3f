package chat

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/heartthread-backend/internal/domain"
	"github.com/yungbote/heartthread-backend/internal/platform/dbctx"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

type ConversationHandleRepo interface {
	GetByUserID(dbc dbctx.Context, userID string) (*types.ConversationHandle, error)
	// CreateIfAbsent inserts row unless the user already has a handle. It returns the
	// stored handle and whether this call created it.
	CreateIfAbsent(dbc dbctx.Context, row *types.ConversationHandle) (*types.ConversationHandle, bool, error)
	Touch(dbc dbctx.Context, userID string, at time.Time, prefs datatypes.JSON) error
	DeleteByUserID(dbc dbctx.Context, userID string) (bool, error)
}

type conversationHandleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationHandleRepo(db *gorm.DB, log *logger.Logger) ConversationHandleRepo {
	return &conversationHandleRepo{db: db, log: log.With("repo", "ConversationHandleRepo")}
}

func (r *conversationHandleRepo) GetByUserID(dbc dbctx.Context, userID string) (*types.ConversationHandle, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var rows []*types.ConversationHandle
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *conversationHandleRepo) CreateIfAbsent(dbc dbctx.Context, row *types.ConversationHandle) (*types.ConversationHandle, bool, error) {
	if row == nil || strings.TrimSpace(row.UserID) == "" {
		return nil, false, fmt.Errorf("missing user_id")
	}
	if strings.TrimSpace(row.ThreadID) == "" {
		return nil, false, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	created := false
	res := txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row)
	switch {
	case res.Error == nil:
		created = res.RowsAffected == 1
	case isUniqueViolation(res.Error):
		r.log.Debug("Conversation handle insert lost race", "user_id", row.UserID)
	default:
		return nil, false, res.Error
	}

	stored, err := r.GetByUserID(dbc, row.UserID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("conversation handle for user vanished after insert")
	}
	return stored, created, nil
}

func (r *conversationHandleRepo) Touch(dbc dbctx.Context, userID string, at time.Time, prefs datatypes.JSON) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	at = at.UTC()
	updates := map[string]interface{}{
		"message_count":   gorm.Expr("message_count + ?", 1),
		"last_message_at": at,
		"updated_at":      at,
	}
	if len(prefs) > 0 {
		updates["last_preferences"] = prefs
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.ConversationHandle{}).
		Where("user_id = ?", userID).
		UpdateColumns(updates).Error
}

func (r *conversationHandleRepo) DeleteByUserID(dbc dbctx.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Delete(&types.ConversationHandle{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
