package memstore

import (
	"sort"
	"time"

	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/store"
	"github.com/shopspring/decimal"
)

type tx struct {
	store    *Store
	data     *state
	version  uint64
	readOnly bool
	dirty    bool
	done     bool
}

func (t *tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.store.finish(t, true)
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.store.finish(t, false)
}

func (t *tx) write() error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.dirty = true
	return nil
}

// toScale rounds half away from zero, as numeric assignment does.
func toScale(d decimal.Decimal) decimal.Decimal {
	return d.Round(models.GoldScale)
}

func toScaleNull(d decimal.NullDecimal) decimal.NullDecimal {
	if d.Valid {
		d.Decimal = toScale(d.Decimal)
	}
	return d
}

// Row locks are not modelled; stale writers fail at commit instead.

func (t *tx) FindCharacter(guildID, userID, name string, lock bool) (*models.Character, error) {
	c, ok := t.data.characters[models.CharacterKey{GuildID: guildID, UserID: userID, Name: name}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *tx) FindActiveCharacter(guildID, userID string, lock bool) (*models.Character, error) {
	for _, c := range t.data.characters {
		if c.GuildID == guildID && c.UserID == userID && c.IsActive && !c.IsRetired {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (t *tx) ListCharacters(guildID, userID string) ([]models.Character, error) {
	var out []models.Character
	for _, c := range t.data.characters {
		if c.GuildID == guildID && c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tx) CreateCharacter(c *models.Character) error {
	if err := t.write(); err != nil {
		return err
	}
	if err := c.BeforeCreate(nil); err != nil {
		return err
	}
	if _, exists := t.data.characters[c.Key()]; exists {
		return store.ErrDuplicate
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	c.Gold = toScale(c.Gold)
	t.data.characters[c.Key()] = *c
	return nil
}

func (t *tx) updateCharacter(key models.CharacterKey, fn func(c *models.Character)) (int64, error) {
	if err := t.write(); err != nil {
		return 0, err
	}
	c, ok := t.data.characters[key]
	if !ok {
		return 0, nil
	}
	fn(&c)
	c.UpdatedAt = time.Now().UTC()
	t.data.characters[key] = c
	return 1, nil
}

func (t *tx) IncrementGold(key models.CharacterKey, delta decimal.Decimal) (int64, error) {
	return t.updateCharacter(key, func(c *models.Character) {
		c.Gold = toScale(c.Gold.Add(delta))
	})
}

func (t *tx) UpdateExperience(key models.CharacterKey, experience int64, level int) (int64, error) {
	return t.updateCharacter(key, func(c *models.Character) {
		c.Experience = experience
		c.Level = level
	})
}

func (t *tx) ActivateCharacter(key models.CharacterKey) (int64, error) {
	if c, ok := t.data.characters[key]; !ok || c.IsRetired {
		return 0, t.write()
	}
	return t.updateCharacter(key, func(c *models.Character) {
		c.IsActive = true
	})
}

func (t *tx) DeactivateOthers(key models.CharacterKey) error {
	if err := t.write(); err != nil {
		return err
	}
	for k, c := range t.data.characters {
		if k.GuildID == key.GuildID && k.UserID == key.UserID && k.Name != key.Name && c.IsActive {
			c.IsActive = false
			t.data.characters[k] = c
		}
	}
	return nil
}

func (t *tx) RetireCharacter(key models.CharacterKey) (int64, error) {
	return t.updateCharacter(key, func(c *models.Character) {
		c.IsRetired = true
		c.IsActive = false
	})
}

func (t *tx) DeleteCharacter(key models.CharacterKey) (int64, error) {
	if err := t.write(); err != nil {
		return 0, err
	}
	if _, ok := t.data.characters[key]; !ok {
		return 0, nil
	}
	delete(t.data.characters, key)
	return 1, nil
}

func (t *tx) FindAuction(guildID string, id uint, lock bool) (*models.Auction, error) {
	a, ok := t.data.auctions[id]
	if !ok || a.GuildID != guildID {
		return nil, nil
	}
	return a.Clone(), nil
}

func (t *tx) CreateAuction(a *models.Auction) error {
	if err := t.write(); err != nil {
		return err
	}
	if err := a.BeforeCreate(nil); err != nil {
		return err
	}
	a.ID = t.data.nextAuctionID
	t.data.nextAuctionID++
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	a.OpeningBidAmount = toScale(a.OpeningBidAmount)
	a.MinimumIncrement = toScale(a.MinimumIncrement)
	a.InstaBuyAmount = toScaleNull(a.InstaBuyAmount)
	a.BidAmount = toScaleNull(a.BidAmount)
	t.data.auctions[a.ID] = a.Clone()
	return nil
}

func (t *tx) SaveAuctionState(a *models.Auction) (int64, error) {
	if err := t.write(); err != nil {
		return 0, err
	}
	stored, ok := t.data.auctions[a.ID]
	if !ok || stored.GuildID != a.GuildID {
		return 0, nil
	}
	updated := stored.Clone()
	src := a.Clone()
	updated.BidAmount = toScaleNull(src.BidAmount)
	updated.BidderUserID = src.BidderUserID
	updated.BidderCharName = src.BidderCharName
	updated.BidAt = src.BidAt
	updated.IsSold = src.IsSold
	updated.IsCanceled = src.IsCanceled
	updated.UpdatedAt = time.Now().UTC()
	t.data.auctions[a.ID] = updated
	return 1, nil
}

func (t *tx) DeleteAuction(guildID string, id uint) (int64, error) {
	if err := t.write(); err != nil {
		return 0, err
	}
	a, ok := t.data.auctions[id]
	if !ok || a.GuildID != guildID {
		return 0, nil
	}
	delete(t.data.auctions, id)
	return 1, nil
}

func (t *tx) ListOpenAuctions(guildID string) ([]models.Auction, error) {
	var out []models.Auction
	for _, a := range t.data.auctions {
		if a.GuildID == guildID && !a.IsClosed() {
			out = append(out, *a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *tx) CountOpenAuctionsInvolving(key models.CharacterKey) (int64, error) {
	var n int64
	for _, a := range t.data.auctions {
		if a.GuildID != key.GuildID || a.IsClosed() {
			continue
		}
		if a.Seller() == key {
			n++
			continue
		}
		if bidder, ok := a.Bidder(); ok && bidder == key {
			n++
		}
	}
	return n, nil
}

func (t *tx) FindDMReward(guildID, userID string, lock bool) (*models.DMReward, error) {
	v, ok := t.data.rewards[rewardKey{guildID, userID}]
	if !ok {
		return nil, nil
	}
	r := &models.DMReward{GuildID: guildID, UserID: userID}
	r.SetValues(v)
	return r, nil
}

func (t *tx) SaveDMReward(r *models.DMReward) error {
	if err := t.write(); err != nil {
		return err
	}
	t.data.rewards[rewardKey{r.GuildID, r.UserID}] = r.Values()
	return nil
}

func (t *tx) CreateTransferLog(l *models.TransferLog) error {
	if err := t.write(); err != nil {
		return err
	}
	l.ID = t.data.nextTransferID
	t.data.nextTransferID++
	l.CreatedAt = time.Now().UTC()
	t.data.transfers = append(t.data.transfers, *l)
	return nil
}
