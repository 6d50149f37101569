// Package memstore is an in-memory store.Store. Every transaction works on
// a private snapshot that replaces the shared state on commit, so a
// rollback or an injected failure leaves nothing behind. A writing
// transaction whose snapshot is stale when it commits fails with a
// store.ConflictError, the way a SERIALIZABLE Postgres transaction does.
// Gold columns are rounded to models.GoldScale like numeric(20,2).
package memstore

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/store"
)

var ErrReadOnly = errors.New("memstore: write in read-only transaction")

type rewardKey struct {
	guildID string
	userID  string
}

type state struct {
	characters     map[models.CharacterKey]models.Character
	auctions       map[uint]*models.Auction
	rewards        map[rewardKey]map[string]float64
	transfers      []models.TransferLog
	nextAuctionID  uint
	nextTransferID uint
}

func newState() *state {
	return &state{
		characters:     make(map[models.CharacterKey]models.Character),
		auctions:       make(map[uint]*models.Auction),
		rewards:        make(map[rewardKey]map[string]float64),
		nextAuctionID:  1,
		nextTransferID: 1,
	}
}

func (s *state) clone() *state {
	c := &state{
		characters:     make(map[models.CharacterKey]models.Character, len(s.characters)),
		auctions:       make(map[uint]*models.Auction, len(s.auctions)),
		rewards:        make(map[rewardKey]map[string]float64, len(s.rewards)),
		transfers:      append([]models.TransferLog(nil), s.transfers...),
		nextAuctionID:  s.nextAuctionID,
		nextTransferID: s.nextTransferID,
	}
	for k, v := range s.characters {
		c.characters[k] = v
	}
	for k, v := range s.auctions {
		c.auctions[k] = v.Clone()
	}
	for k, v := range s.rewards {
		c.rewards[k] = copyValues(v)
	}
	return c
}

func copyValues(v map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// Store is safe for concurrent use.
type Store struct {
	mu          sync.Mutex // guards the fields below
	data        *state
	version     uint64 // bumped by every write to data
	guilds      map[string]*models.GuildConfig
	failCommits int
	failWith    error
	begins      int
	commits     int
	rollbacks   int
	isolations  []sql.IsolationLevel
}

func New() *Store {
	return &Store{
		data:   newState(),
		guilds: make(map[string]*models.GuildConfig),
	}
}

func (s *Store) Begin(ctx context.Context, opts *sql.TxOptions) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	readOnly := false
	isolation := sql.LevelDefault
	if opts != nil {
		readOnly = opts.ReadOnly
		isolation = opts.Isolation
	}
	s.isolations = append(s.isolations, isolation)

	return &tx{store: s, data: s.data.clone(), version: s.version, readOnly: readOnly}, nil
}

// FailNextCommits makes the next n commits fail with a serialization
// conflict.
func (s *Store) FailNextCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommits = n
}

// FailNextCommitWith makes the next commit fail with err.
func (s *Store) FailNextCommitWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store) Stats() (begins, commits, rollbacks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begins, s.commits, s.rollbacks
}

// Isolations returns the isolation level requested by every Begin so far.
func (s *Store) Isolations() []sql.IsolationLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sql.IsolationLevel(nil), s.isolations...)
}

// PutCharacter stores c directly, outside any transaction.
func (s *Store) PutCharacter(c models.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.characters[c.Key()] = c
	s.version++
}

func (s *Store) Character(key models.CharacterKey) (models.Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.characters[key]
	return c, ok
}

// Characters returns every stored character ordered by key.
func (s *Store) Characters() []models.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Character, 0, len(s.data.characters))
	for _, c := range s.data.characters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out
}

// PutAuction stores a, assigning an ID when it has none.
func (s *Store) PutAuction(a *models.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.data.nextAuctionID
	}
	if a.ID >= s.data.nextAuctionID {
		s.data.nextAuctionID = a.ID + 1
	}
	s.data.auctions[a.ID] = a.Clone()
	s.version++
}

func (s *Store) Auction(id uint) (*models.Auction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.auctions[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

func (s *Store) PutDMReward(guildID, userID string, values map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.rewards[rewardKey{guildID, userID}] = copyValues(values)
	s.version++
}

func (s *Store) DMRewardValues(guildID, userID string) (map[string]float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data.rewards[rewardKey{guildID, userID}]
	if !ok {
		return nil, false
	}
	return copyValues(v), true
}

func (s *Store) TransferLogs() []models.TransferLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TransferLog(nil), s.data.transfers...)
}

func (s *Store) PutGuildConfig(cfg *models.GuildConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds[cfg.ID] = cfg
}

// GetGuildConfig returns the stored config or the default one.
func (s *Store) GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok := s.guilds[guildID]; ok {
		return cfg, nil
	}
	return models.DefaultGuildConfig(guildID), nil
}

func (s *Store) finish(t *tx, commit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !commit {
		s.rollbacks++
		return nil
	}
	if s.failCommits > 0 {
		s.failCommits--
		s.rollbacks++
		return &store.ConflictError{Code: "40001", Err: errors.New("memstore: injected conflict")}
	}
	if s.failWith != nil {
		err := s.failWith
		s.failWith = nil
		s.rollbacks++
		return err
	}
	if !t.dirty {
		s.commits++
		return nil
	}
	if t.version != s.version {
		s.rollbacks++
		return &store.ConflictError{Code: "40001", Err: errors.New("memstore: concurrent update")}
	}
	s.commits++
	s.data = t.data
	s.version++
	return nil
}
