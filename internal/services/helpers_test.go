package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/mroshb/economy_bot/internal/metrics"
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/store"
	"github.com/mroshb/economy_bot/internal/store/memstore"
	"github.com/mroshb/economy_bot/internal/txn"
	"github.com/shopspring/decimal"
)

const testGuild = "guild-1"

type testEnv struct {
	store      *memstore.Store
	script     *scriptedStore
	coord      *txn.Coordinator
	metrics    *metrics.Metrics
	auctions   *AuctionService
	characters *CharacterService
	rewards    *RewardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := memstore.New()
	script := &scriptedStore{Store: s}
	m := metrics.New("test")
	coord := txn.New(script, txn.WithMaxRetries(3), txn.WithBackoff(time.Microsecond, time.Microsecond), txn.WithMetrics(m))
	ledger := NewCharacterLedger()

	env := &testEnv{
		store:      s,
		script:     script,
		coord:      coord,
		metrics:    m,
		auctions:   NewAuctionService(coord, ledger, m),
		characters: NewCharacterService(coord, ledger, s),
		rewards:    NewRewardService(coord, ledger, s),
	}
	env.auctions.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return env
}

func gold(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (e *testEnv) addCharacter(userID, name string, g int64, active bool) models.CharacterKey {
	c := models.Character{
		GuildID:  testGuild,
		UserID:   userID,
		Name:     name,
		Gold:     gold(g),
		Level:    1,
		IsActive: active,
	}
	e.store.PutCharacter(c)
	return c.Key()
}

func (e *testEnv) goldOf(t *testing.T, key models.CharacterKey) decimal.Decimal {
	t.Helper()
	c, ok := e.store.Character(key)
	if !ok {
		t.Fatalf("character %s not found", key)
	}
	return c.Gold
}

func (e *testEnv) assertGold(t *testing.T, key models.CharacterKey, want int64) {
	t.Helper()
	if got := e.goldOf(t, key); !got.Equal(gold(want)) {
		t.Errorf("%s gold = %s, want %d", key.Name, got, want)
	}
}

func (e *testEnv) openAuction(sellerUserID, sellerChar string, opening, increment int64) uint {
	a := &models.Auction{
		GuildID:          testGuild,
		SellerUserID:     sellerUserID,
		SellerCharName:   sellerChar,
		Title:            "Sword of Dawn",
		OpeningBidAmount: gold(opening),
		MinimumIncrement: gold(increment),
	}
	e.store.PutAuction(a)
	return a.ID
}

// scriptedStore wraps a memstore so tests can fail calls in the middle
// of an operation and see which characters were locked.
type scriptedStore struct {
	*memstore.Store

	mu        sync.Mutex
	failSaves int // SaveAuctionState calls that fail with a conflict
	locked    []models.CharacterKey
}

func (s *scriptedStore) Begin(ctx context.Context, opts *sql.TxOptions) (store.Tx, error) {
	tx, err := s.Store.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &scriptedTx{Tx: tx, script: s}, nil
}

func (s *scriptedStore) FailSaves(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = n
}

// Locked returns the keys locked through FindCharacter, then forgets them.
func (s *scriptedStore) Locked() []models.CharacterKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.locked
	s.locked = nil
	return out
}

type scriptedTx struct {
	store.Tx
	script *scriptedStore
}

func (t *scriptedTx) FindCharacter(guildID, userID, name string, lock bool) (*models.Character, error) {
	if lock {
		t.script.mu.Lock()
		t.script.locked = append(t.script.locked, models.CharacterKey{GuildID: guildID, UserID: userID, Name: name})
		t.script.mu.Unlock()
	}
	return t.Tx.FindCharacter(guildID, userID, name, lock)
}

func (t *scriptedTx) SaveAuctionState(a *models.Auction) (int64, error) {
	t.script.mu.Lock()
	fail := t.script.failSaves > 0
	if fail {
		t.script.failSaves--
	}
	t.script.mu.Unlock()
	if fail {
		return 0, &store.ConflictError{Code: "40P01"}
	}
	return t.Tx.SaveAuctionState(a)
}
