package repositories

import (
	"context"
	"database/sql"

	"github.com/mroshb/economy_bot/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore opens Postgres transactions for the economy engine.
type LedgerStore struct {
	db *gorm.DB
}

var _ store.Store = (*LedgerStore)(nil)

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) Begin(ctx context.Context, opts *sql.TxOptions) (store.Tx, error) {
	tx := s.db.WithContext(ctx).Begin(opts)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return &ledgerTx{
		CharacterRepository:   NewCharacterRepository(tx),
		AuctionRepository:     NewAuctionRepository(tx),
		RewardRepository:      NewRewardRepository(tx),
		TransferLogRepository: NewTransferLogRepository(tx),
		tx:                    tx,
	}, nil
}

type ledgerTx struct {
	*CharacterRepository
	*AuctionRepository
	*RewardRepository
	*TransferLogRepository

	tx   *gorm.DB
	done bool
}

func (t *ledgerTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	return translate(t.tx.Commit().Error)
}

func (t *ledgerTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return translate(t.tx.Rollback().Error)
}

// lockFor adds SELECT ... FOR UPDATE when lock is set.
func lockFor(db *gorm.DB, lock bool) *gorm.DB {
	if lock {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
