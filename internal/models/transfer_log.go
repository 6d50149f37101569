package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferLog struct {
	ID                  uint            `gorm:"primaryKey"`
	GuildID             string          `gorm:"type:varchar(64);not null;index"`
	Amount              decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Kind                string          `gorm:"type:varchar(32);not null;index"`
	SourceUserID        string          `gorm:"type:varchar(64);not null"`
	SourceCharName      string          `gorm:"type:varchar(100);not null"`
	DestinationUserID   string          `gorm:"type:varchar(64);not null"`
	DestinationCharName string          `gorm:"type:varchar(100);not null"`
	AuctionID           *uint
	CreatedAt           time.Time `gorm:"autoCreateTime;index"`
}

// Transfer kind constants
const (
	TransferKindTransfer    = "transfer"
	TransferKindAuctionSale = "auction_sale"
)

func (TransferLog) TableName() string {
	return "transfer_logs"
}
