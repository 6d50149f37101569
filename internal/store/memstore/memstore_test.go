package memstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/store"
	"github.com/shopspring/decimal"
)

func seed(s *Store) models.CharacterKey {
	c := models.Character{GuildID: "g", UserID: "u", Name: "Bob", Gold: decimal.NewFromInt(100), Level: 1, IsActive: true}
	s.PutCharacter(c)
	return c.Key()
}

func TestCommitPublishesWrites(t *testing.T) {
	s := New()
	key := seed(s)

	tx, err := s.Begin(context.Background(), &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if n, err := tx.IncrementGold(key, decimal.NewFromInt(-40)); err != nil || n != 1 {
		t.Fatalf("IncrementGold() = %d, %v", n, err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	_ = tx.Rollback()

	c, _ := s.Character(key)
	if !c.Gold.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Gold = %s, want 60", c.Gold)
	}
	if got := s.Isolations(); len(got) != 1 || got[0] != sql.LevelSerializable {
		t.Errorf("Isolations() = %v", got)
	}
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := New()
	key := seed(s)

	tx, _ := s.Begin(context.Background(), nil)
	_, _ = tx.IncrementGold(key, decimal.NewFromInt(-40))
	_ = tx.Rollback()

	c, _ := s.Character(key)
	if !c.Gold.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Gold = %s, want 100", c.Gold)
	}
}

func TestInjectedConflict(t *testing.T) {
	s := New()
	key := seed(s)
	s.FailNextCommits(1)

	tx, _ := s.Begin(context.Background(), nil)
	_, _ = tx.IncrementGold(key, decimal.NewFromInt(5))
	err := tx.Commit()
	if !store.IsConflict(err) {
		t.Fatalf("Commit() error = %v, want conflict", err)
	}

	c, _ := s.Character(key)
	if !c.Gold.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Gold = %s after failed commit, want 100", c.Gold)
	}

	tx, _ = s.Begin(context.Background(), nil)
	if err := tx.Commit(); err != nil {
		t.Errorf("second Commit() error = %v", err)
	}
}

func TestInjectedStoreFailure(t *testing.T) {
	s := New()
	boom := errors.New("disk full")
	s.FailNextCommitWith(boom)

	tx, _ := s.Begin(context.Background(), nil)
	if err := tx.Commit(); !errors.Is(err, boom) {
		t.Errorf("Commit() error = %v, want %v", err, boom)
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	s := New()
	key := seed(s)

	tx, _ := s.Begin(context.Background(), &sql.TxOptions{ReadOnly: true})
	defer tx.Rollback()
	if _, err := tx.IncrementGold(key, decimal.NewFromInt(1)); !errors.Is(err, ErrReadOnly) {
		t.Errorf("IncrementGold() error = %v, want ErrReadOnly", err)
	}
}

func TestCreateDuplicateCharacter(t *testing.T) {
	s := New()
	seed(s)

	tx, _ := s.Begin(context.Background(), nil)
	defer tx.Rollback()
	err := tx.CreateCharacter(&models.Character{GuildID: "g", UserID: "u", Name: "Bob", Level: 1})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("CreateCharacter() error = %v, want ErrDuplicate", err)
	}
}

func TestFindReturnsCopies(t *testing.T) {
	s := New()
	s.PutAuction(&models.Auction{GuildID: "g", SellerUserID: "u", SellerCharName: "Bob", Title: "Lamp"})

	tx, _ := s.Begin(context.Background(), nil)
	defer tx.Rollback()
	a, _ := tx.FindAuction("g", 1, true)
	a.IsSold = true

	again, _ := tx.FindAuction("g", 1, false)
	if again.IsSold {
		t.Errorf("mutating a found auction changed the store")
	}
	if other, _ := tx.FindAuction("other", 1, false); other != nil {
		t.Errorf("FindAuction() crossed guilds")
	}
}

func TestActivateRetiredCharacter(t *testing.T) {
	s := New()
	c := models.Character{GuildID: "g", UserID: "u", Name: "Old", Level: 1, IsRetired: true}
	s.PutCharacter(c)

	tx, _ := s.Begin(context.Background(), nil)
	defer tx.Rollback()
	if n, err := tx.ActivateCharacter(c.Key()); err != nil || n != 0 {
		t.Errorf("ActivateCharacter(retired) = %d, %v, want 0 rows", n, err)
	}
}

func TestStaleWriterConflicts(t *testing.T) {
	s := New()
	key := seed(s)

	first, _ := s.Begin(context.Background(), nil)
	second, _ := s.Begin(context.Background(), nil)
	reader, _ := s.Begin(context.Background(), &sql.TxOptions{ReadOnly: true})

	_, _ = first.IncrementGold(key, decimal.NewFromInt(-30))
	_, _ = second.IncrementGold(key, decimal.NewFromInt(-50))
	if err := first.Commit(); err != nil {
		t.Fatalf("first Commit() error = %v", err)
	}
	if err := second.Commit(); !store.IsConflict(err) {
		t.Fatalf("second Commit() error = %v, want conflict", err)
	}
	if err := reader.Commit(); err != nil {
		t.Errorf("read-only Commit() error = %v", err)
	}

	c, _ := s.Character(key)
	if !c.Gold.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Gold = %s, want 70", c.Gold)
	}
}

func TestGoldRoundsToColumnScale(t *testing.T) {
	s := New()
	key := seed(s)

	tx, _ := s.Begin(context.Background(), nil)
	_, _ = tx.IncrementGold(key, decimal.RequireFromString("-10.006"))
	a := &models.Auction{
		GuildID:          "g",
		SellerUserID:     "u",
		SellerCharName:   "Bob",
		Title:            "Lamp",
		OpeningBidAmount: decimal.RequireFromString("1.234"),
		MinimumIncrement: decimal.NewFromInt(1),
	}
	if err := tx.CreateAuction(a); err != nil {
		t.Fatalf("CreateAuction() error = %v", err)
	}
	a.BidAmount = decimal.NewNullDecimal(decimal.RequireFromString("1000.005"))
	_, _ = tx.SaveAuctionState(a)
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	c, _ := s.Character(key)
	if want := decimal.RequireFromString("89.99"); !c.Gold.Equal(want) {
		t.Errorf("Gold = %s, want %s", c.Gold, want)
	}
	stored, _ := s.Auction(a.ID)
	if want := decimal.RequireFromString("1.23"); !stored.OpeningBidAmount.Equal(want) {
		t.Errorf("OpeningBidAmount = %s, want %s", stored.OpeningBidAmount, want)
	}
	if want := decimal.RequireFromString("1000.01"); !stored.BidAmount.Decimal.Equal(want) {
		t.Errorf("BidAmount = %s, want %s", stored.BidAmount.Decimal, want)
	}
}
