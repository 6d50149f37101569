package handlers

import (
	"time"

	"github.com/mroshb/economy_bot/internal/models"
	"github.com/shopspring/decimal"
)

type characterView struct {
	UserID     string          `json:"user_id"`
	Name       string          `json:"name"`
	Gold       decimal.Decimal `json:"gold"`
	Experience int64           `json:"experience"`
	Level      int             `json:"level"`
	XPBar      string          `json:"xp_bar"`
	Active     bool            `json:"active"`
	Retired    bool            `json:"retired"`
}

func newCharacterView(c models.Character) characterView {
	return characterView{
		UserID:     c.UserID,
		Name:       c.Name,
		Gold:       c.Gold,
		Experience: c.Experience,
		Level:      c.Level,
		XPBar:      c.GetXPBar(),
		Active:     c.IsActive,
		Retired:    c.IsRetired,
	}
}

func newCharacterViews(chars []models.Character) []characterView {
	out := make([]characterView, 0, len(chars))
	for _, c := range chars {
		out = append(out, newCharacterView(c))
	}
	return out
}

type characterRef struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type auctionView struct {
	ID               uint             `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	Seller           characterRef     `json:"seller"`
	Status           string           `json:"status"`
	OpeningBid       decimal.Decimal  `json:"opening_bid"`
	MinimumIncrement decimal.Decimal  `json:"minimum_increment"`
	MinimumBid       decimal.Decimal  `json:"minimum_bid"`
	InstaBuy         *decimal.Decimal `json:"insta_buy,omitempty"`
	Bid              *decimal.Decimal `json:"bid,omitempty"`
	Bidder           *characterRef    `json:"bidder,omitempty"`
	BidAt            *time.Time       `json:"bid_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

func newAuctionView(a *models.Auction) auctionView {
	v := auctionView{
		ID:               a.ID,
		Title:            a.Title,
		Description:      a.Description,
		Seller:           characterRef{UserID: a.SellerUserID, Name: a.SellerCharName},
		Status:           a.Status(),
		OpeningBid:       a.OpeningBidAmount,
		MinimumIncrement: a.MinimumIncrement,
		MinimumBid:       a.MinimumAcceptableBid(),
		BidAt:            a.BidAt,
		CreatedAt:        a.CreatedAt,
	}
	if a.HasInstaBuy() {
		amount := a.InstaBuyAmount.Decimal
		v.InstaBuy = &amount
	}
	if bidder, ok := a.Bidder(); ok {
		amount := a.BidAmount.Decimal
		v.Bid = &amount
		v.Bidder = &characterRef{UserID: bidder.UserID, Name: bidder.Name}
	}
	return v
}

type transferView struct {
	ID          uint            `json:"id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Source      characterRef    `json:"source"`
	Destination characterRef    `json:"destination"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newTransferView(l *models.TransferLog) transferView {
	return transferView{
		ID:          l.ID,
		Kind:        l.Kind,
		Amount:      l.Amount,
		Source:      characterRef{UserID: l.SourceUserID, Name: l.SourceCharName},
		Destination: characterRef{UserID: l.DestinationUserID, Name: l.DestinationCharName},
		CreatedAt:   l.CreatedAt,
	}
}
