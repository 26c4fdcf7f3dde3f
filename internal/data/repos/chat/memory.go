package chat

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/heartthread-backend/internal/domain"
	"github.com/yungbote/heartthread-backend/internal/platform/dbctx"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

type EmotionalMemoryRepo interface {
	GetByUserID(dbc dbctx.Context, userID string) (*types.EmotionalMemory, error)
	Upsert(dbc dbctx.Context, row *types.EmotionalMemory) error
	DeleteByUserID(dbc dbctx.Context, userID string) (bool, error)
}

type emotionalMemoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmotionalMemoryRepo(db *gorm.DB, log *logger.Logger) EmotionalMemoryRepo {
	return &emotionalMemoryRepo{
		db:  db,
		log: log.With("repo", "EmotionalMemoryRepo"),
	}
}

func (r *emotionalMemoryRepo) GetByUserID(dbc dbctx.Context, userID string) (*types.EmotionalMemory, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.EmotionalMemory
	if err := transaction.WithContext(dbc.Ctx).
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

func (r *emotionalMemoryRepo) Upsert(dbc dbctx.Context, row *types.EmotionalMemory) error {
	if row == nil || strings.TrimSpace(row.UserID) == "" {
		return fmt.Errorf("missing user_id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	row.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"loved_one_name",
				"relationship_status",
				"intent",
				"relational_style",
				"emotional_state",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *emotionalMemoryRepo) DeleteByUserID(dbc dbctx.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, fmt.Errorf("missing user_id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Delete(&types.EmotionalMemory{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
