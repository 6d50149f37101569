package models

import (
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MinAuctionTitleLength is the shortest accepted auction title, in runes.
const MinAuctionTitleLength = 4

const (
	AuctionStatusOpen     = "open"
	AuctionStatusSold     = "sold"
	AuctionStatusCanceled = "canceled"
)

type Auction struct {
	ID               uint                `gorm:"primaryKey"`
	GuildID          string              `gorm:"type:varchar(64);not null;index"`
	SellerUserID     string              `gorm:"column:user_id;type:varchar(64);not null;index"`
	SellerCharName   string              `gorm:"column:character_name;type:varchar(100);not null"`
	Title            string              `gorm:"type:varchar(255);not null"`
	Description      string              `gorm:"type:text"`
	OpeningBidAmount decimal.Decimal     `gorm:"type:numeric(20,2);not null"`
	MinimumIncrement decimal.Decimal     `gorm:"type:numeric(20,2);not null"`
	InstaBuyAmount   decimal.NullDecimal `gorm:"type:numeric(20,2)"`
	BidAmount        decimal.NullDecimal `gorm:"type:numeric(20,2)"`
	BidderUserID     *string             `gorm:"type:varchar(64);index"`
	BidderCharName   *string             `gorm:"type:varchar(100)"`
	BidAt            *time.Time
	IsSold           bool      `gorm:"not null;default:false"`
	IsCanceled       bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// HasBid reports whether a bid is currently held in escrow.
func (a *Auction) HasBid() bool {
	return a.BidAmount.Valid && a.BidderUserID != nil && a.BidderCharName != nil
}

func (a *Auction) HasInstaBuy() bool {
	return a.InstaBuyAmount.Valid
}

// IsClosed reports whether the auction is terminal for bidding.
func (a *Auction) IsClosed() bool {
	return a.IsSold || a.IsCanceled
}

func (a *Auction) Status() string {
	switch {
	case a.IsSold:
		return AuctionStatusSold
	case a.IsCanceled:
		return AuctionStatusCanceled
	default:
		return AuctionStatusOpen
	}
}

// MinimumAcceptableBid is the opening bid when nobody has bid yet,
// otherwise the current bid plus the increment.
func (a *Auction) MinimumAcceptableBid() decimal.Decimal {
	if a.HasBid() {
		return a.BidAmount.Decimal.Add(a.MinimumIncrement)
	}
	return a.OpeningBidAmount
}

func (a *Auction) CanBidAmount(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(a.MinimumAcceptableBid())
}

// ReachesInstaBuy reports whether amount closes the auction immediately.
func (a *Auction) ReachesInstaBuy(amount decimal.Decimal) bool {
	return a.HasInstaBuy() && amount.GreaterThanOrEqual(a.InstaBuyAmount.Decimal)
}

// Bidder returns the escrow holder. ok is false when there is no bid.
func (a *Auction) Bidder() (key CharacterKey, ok bool) {
	if !a.HasBid() {
		return CharacterKey{}, false
	}
	return CharacterKey{GuildID: a.GuildID, UserID: *a.BidderUserID, Name: *a.BidderCharName}, true
}

func (a *Auction) Seller() CharacterKey {
	return CharacterKey{GuildID: a.GuildID, UserID: a.SellerUserID, Name: a.SellerCharName}
}

// SetBid overwrites the bid fields together so they stay consistent.
func (a *Auction) SetBid(bidder CharacterKey, amount decimal.Decimal, at time.Time) {
	userID, name := bidder.UserID, bidder.Name
	a.BidAmount = decimal.NewNullDecimal(amount)
	a.BidderUserID = &userID
	a.BidderCharName = &name
	a.BidAt = &at
}

// Clone returns a deep copy, pointers included.
func (a *Auction) Clone() *Auction {
	c := *a
	if a.BidderUserID != nil {
		v := *a.BidderUserID
		c.BidderUserID = &v
	}
	if a.BidderCharName != nil {
		v := *a.BidderCharName
		c.BidderCharName = &v
	}
	if a.BidAt != nil {
		v := *a.BidAt
		c.BidAt = &v
	}
	return &c
}

// BeforeCreate hook for validation
func (a *Auction) BeforeCreate(tx *gorm.DB) error {
	if a.GuildID == "" || a.SellerUserID == "" || a.SellerCharName == "" {
		return gorm.ErrInvalidData
	}
	if utf8.RuneCountInString(a.Title) < MinAuctionTitleLength {
		return gorm.ErrInvalidData
	}
	if !a.OpeningBidAmount.IsPositive() || !a.MinimumIncrement.IsPositive() {
		return gorm.ErrInvalidData
	}
	if a.HasInstaBuy() && a.InstaBuyAmount.Decimal.LessThan(a.OpeningBidAmount) {
		return gorm.ErrInvalidData
	}
	if a.BidAmount.Valid || a.BidderUserID != nil || a.IsSold || a.IsCanceled {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Auction) TableName() string {
	return "auctions"
}
