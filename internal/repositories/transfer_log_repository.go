package repositories

import (
	"time"

	"github.com/mroshb/economy_bot/internal/models"
	"gorm.io/gorm"
)

type TransferLogRepository struct {
	db *gorm.DB
}

func NewTransferLogRepository(db *gorm.DB) *TransferLogRepository {
	return &TransferLogRepository{db: db}
}

func (r *TransferLogRepository) CreateTransferLog(l *models.TransferLog) error {
	return translate(r.db.Create(l).Error)
}

// ListTransferLogs returns a guild's transfers created in [from, to),
// oldest first. A zero bound is open.
func (r *TransferLogRepository) ListTransferLogs(guildID string, from, to time.Time) ([]models.TransferLog, error) {
	q := r.db.Where("guild_id = ?", guildID)
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	var logs []models.TransferLog
	err := q.Order("created_at ASC, id ASC").Find(&logs).Error
	return logs, translate(err)
}
