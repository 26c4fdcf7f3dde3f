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

type UserAccountRepo interface {
	GetByUserID(dbc dbctx.Context, userID string) (*types.UserAccount, error)
	// EnsureExists creates the account with initialCredits on first sight and
	// returns the stored row either way.
	EnsureExists(dbc dbctx.Context, userID string, initialCredits int) (*types.UserAccount, error)
	// ConsumeCredit atomically takes one credit. ok is false when none were left.
	ConsumeCredit(dbc dbctx.Context, userID string) (remaining int, ok bool, err error)
	RefundCredit(dbc dbctx.Context, userID string) error
}

type userAccountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAccountRepo(db *gorm.DB, log *logger.Logger) UserAccountRepo {
	return &userAccountRepo{db: db, log: log.With("repo", "UserAccountRepo")}
}

func (r *userAccountRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *userAccountRepo) GetByUserID(dbc dbctx.Context, userID string) (*types.UserAccount, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	var rows []*types.UserAccount
	if err := r.tx(dbc).Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *userAccountRepo) EnsureExists(dbc dbctx.Context, userID string, initialCredits int) (*types.UserAccount, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if initialCredits < 0 {
		initialCredits = 0
	}
	row := &types.UserAccount{UserID: userID, Credits: initialCredits}
	err := r.tx(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error
	if err != nil && !isUniqueViolation(err) {
		return nil, err
	}
	stored, err := r.GetByUserID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("user account vanished after insert")
	}
	return stored, nil
}

func (r *userAccountRepo) ConsumeCredit(dbc dbctx.Context, userID string) (int, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, false, fmt.Errorf("missing user_id")
	}
	res := r.tx(dbc).
		Model(&types.UserAccount{}).
		Where("user_id = ? AND credits > 0", userID).
		UpdateColumns(map[string]interface{}{
			"credits":    gorm.Expr("credits - ?", 1),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	acct, err := r.GetByUserID(dbc, userID)
	if err != nil {
		return 0, true, err
	}
	if acct == nil {
		return 0, true, nil
	}
	return acct.Credits, true, nil
}

func (r *userAccountRepo) RefundCredit(dbc dbctx.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("missing user_id")
	}
	return r.tx(dbc).
		Model(&types.UserAccount{}).
		Where("user_id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"credits":    gorm.Expr("credits + ?", 1),
			"updated_at": time.Now().UTC(),
		}).Error
}
