package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mroshb/economy_bot/internal/metrics"
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/security"
	"github.com/mroshb/economy_bot/internal/store"
	"github.com/mroshb/economy_bot/internal/txn"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/shopspring/decimal"
)

type AuctionService struct {
	coord   *txn.Coordinator
	ledger  *CharacterLedger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAuctionService(coord *txn.Coordinator, ledger *CharacterLedger, m *metrics.Metrics) *AuctionService {
	return &AuctionService{
		coord:   coord,
		ledger:  ledger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type CreateAuctionInput struct {
	GuildID          string
	SellerUserID     string
	Title            string
	Description      string
	OpeningBid       decimal.Decimal
	MinimumIncrement decimal.Decimal
	InstaBuy         *decimal.Decimal
}

func (in *CreateAuctionInput) validate() error {
	var problems errors.List
	if utf8.RuneCountInString(in.Title) < models.MinAuctionTitleLength {
		problems = append(problems, errors.Newf(errors.ErrCodeValidation, "title must be at least %d characters", models.MinAuctionTitleLength))
	}
	if !in.OpeningBid.IsPositive() {
		problems = append(problems, errors.New(errors.ErrCodeValidation, "opening bid must be greater than 0"))
	}
	if !in.MinimumIncrement.IsPositive() {
		problems = append(problems, errors.New(errors.ErrCodeValidation, "minimum increment must be greater than 0"))
	}
	if err := checkGold("opening bid", in.OpeningBid); err != nil {
		problems = append(problems, err.(*errors.AppError))
	}
	if err := checkGold("minimum increment", in.MinimumIncrement); err != nil {
		problems = append(problems, err.(*errors.AppError))
	}
	if in.InstaBuy != nil {
		if err := checkGold("insta-buy amount", *in.InstaBuy); err != nil {
			problems = append(problems, err.(*errors.AppError))
		}
	}
	if in.InstaBuy != nil && in.InstaBuy.LessThan(in.OpeningBid) {
		problems = append(problems, errors.Newf(errors.ErrCodeValidation, "insta-buy amount must be at least the opening bid (%s)", in.OpeningBid))
	}
	return problems.OrNil()
}

// Create opens an auction sold by the seller's active character.
func (s *AuctionService) Create(ctx context.Context, in CreateAuctionInput) (*models.Auction, error) {
	in.Title = security.AuctionTitle(in.Title)
	in.Description = security.AuctionDescription(in.Description)
	if err := in.validate(); err != nil {
		return nil, err
	}

	return txn.Run(ctx, s.coord, txn.Serializable("auction.create"), func(tx store.Tx) (*models.Auction, error) {
		seller, err := tx.FindActiveCharacter(in.GuildID, in.SellerUserID, true)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get seller")
		}
		if seller == nil {
			return nil, noActiveCharacter(in.SellerUserID)
		}

		auction := &models.Auction{
			GuildID:          in.GuildID,
			SellerUserID:     in.SellerUserID,
			SellerCharName:   seller.Name,
			Title:            in.Title,
			Description:      in.Description,
			OpeningBidAmount: in.OpeningBid,
			MinimumIncrement: in.MinimumIncrement,
		}
		if in.InstaBuy != nil {
			auction.InstaBuyAmount = decimal.NewNullDecimal(*in.InstaBuy)
		}
		if err := tx.CreateAuction(auction); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create auction")
		}
		return auction, nil
	})
}

// BidResult describes an accepted bid.
type BidResult struct {
	Auction *models.Auction
	Bidder  models.Character
	// Refunded is the previous escrow holder, nil for a first bid.
	Refunded       *models.CharacterKey
	RefundedAmount decimal.Decimal
	// Sold is set when the bid reached the insta-buy amount.
	Sold bool
}

// PlaceBid bids amount on behalf of the user's active character. Every
// failed precondition is reported together as an errors.List.
func (s *AuctionService) PlaceBid(ctx context.Context, guildID string, auctionID uint, bidderUserID string, amount decimal.Decimal) (*BidResult, error) {
	if !amount.IsPositive() {
		s.metrics.IncBid(metrics.BidRejected)
		return nil, errors.List{errors.New(errors.ErrCodeValidation, "bid amount must be greater than 0")}
	}
	if err := checkGold("bid amount", amount); err != nil {
		s.metrics.IncBid(metrics.BidRejected)
		return nil, errors.List{err.(*errors.AppError)}
	}

	result, err := txn.Run(ctx, s.coord, txn.Serializable("auction.bid"), func(tx store.Tx) (*BidResult, error) {
		return s.placeBid(tx, guildID, auctionID, bidderUserID, amount)
	})

	switch {
	case err == nil && result.Sold:
		s.metrics.IncBid(metrics.BidInstaBuy)
	case err == nil:
		s.metrics.IncBid(metrics.BidAccepted)
	case isBusinessError(err):
		s.metrics.IncBid(metrics.BidRejected)
	default:
		s.metrics.IncBid(metrics.BidFailed)
	}
	return result, err
}

func (s *AuctionService) placeBid(tx store.Tx, guildID string, auctionID uint, bidderUserID string, amount decimal.Decimal) (*BidResult, error) {
	// auction row first, then characters
	auction, err := tx.FindAuction(guildID, auctionID, true)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get auction")
	}
	bidder, err := tx.FindActiveCharacter(guildID, bidderUserID, true)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get bidder")
	}

	var problems errors.List
	if auction == nil {
		problems = append(problems, auctionNotFound(auctionID))
	}
	if bidder == nil {
		problems = append(problems, noActiveCharacter(bidderUserID))
	}
	if bidder != nil && !bidder.CanAfford(amount) {
		problems = append(problems, errors.Newf(errors.ErrCodeInsufficientFunds, "%s does not have %s gold", bidder.Name, amount))
	}
	if auction != nil {
		if !auction.CanBidAmount(amount) {
			problems = append(problems, errors.Newf(errors.ErrCodeBidTooLow, "bid must be at least %s", auction.MinimumAcceptableBid()))
		}
		if auction.IsClosed() {
			problems = append(problems, auctionClosed(auction))
		}
		if bidder != nil && auction.SellerUserID == bidder.UserID && auction.SellerCharName == bidder.Name {
			problems = append(problems, errors.New(errors.ErrCodeSelfBid, "you cannot bid on your own auction"))
		}
	}
	if err := problems.OrNil(); err != nil {
		return nil, err
	}

	result := &BidResult{}
	if err := s.ledger.ChargeAndEscrow(tx, bidder.Key(), amount); err != nil {
		return nil, err
	}
	bidder.Gold = bidder.Gold.Sub(amount)

	if previous, ok := auction.Bidder(); ok {
		if err := s.ledger.RefundEscrow(tx, previous, auction.BidAmount.Decimal); err != nil {
			return nil, err
		}
		if previous == bidder.Key() {
			bidder.Gold = bidder.Gold.Add(auction.BidAmount.Decimal)
		}
		result.Refunded = &previous
		result.RefundedAmount = auction.BidAmount.Decimal
	}

	now := s.now()
	auction.SetBid(bidder.Key(), amount, now)

	if auction.ReachesInstaBuy(amount) {
		if err := s.completeSale(tx, auction); err != nil {
			return nil, err
		}
		result.Sold = true
	}

	if err := s.saveState(tx, auction); err != nil {
		return nil, err
	}

	result.Auction = auction
	result.Bidder = *bidder
	return result, nil
}

// completeSale pays the escrowed bid to the seller and marks the auction
// sold. The caller saves the auction state.
func (s *AuctionService) completeSale(tx store.Tx, auction *models.Auction) error {
	bidder, _ := auction.Bidder()
	seller := auction.Seller()
	amount := auction.BidAmount.Decimal

	if err := s.ledger.EarnGold(tx, seller, amount); err != nil {
		return err
	}
	auction.IsSold = true

	id := auction.ID
	log := &models.TransferLog{
		GuildID:             auction.GuildID,
		Amount:              amount,
		Kind:                models.TransferKindAuctionSale,
		SourceUserID:        bidder.UserID,
		SourceCharName:      bidder.Name,
		DestinationUserID:   seller.UserID,
		DestinationCharName: seller.Name,
		AuctionID:           &id,
	}
	if err := tx.CreateTransferLog(log); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write transfer log")
	}
	return nil
}

func (s *AuctionService) saveState(tx store.Tx, auction *models.Auction) error {
	rows, err := tx.SaveAuctionState(auction)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update auction")
	}
	if rows != 1 {
		return auctionNotFound(auction.ID)
	}
	return nil
}

// Sell accepts the current bid. Only the seller can sell.
func (s *AuctionService) Sell(ctx context.Context, guildID string, auctionID uint, sellerUserID string) (*models.Auction, error) {
	return txn.Run(ctx, s.coord, txn.Serializable("auction.sell"), func(tx store.Tx) (*models.Auction, error) {
		auction, err := tx.FindAuction(guildID, auctionID, true)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get auction")
		}
		if auction == nil {
			return nil, auctionNotFound(auctionID)
		}
		if auction.SellerUserID != sellerUserID {
			return nil, errors.New(errors.ErrCodeForbidden, "only the seller can sell this auction")
		}
		if auction.IsClosed() {
			return nil, auctionClosed(auction)
		}
		if !auction.HasBid() {
			return nil, errors.New(errors.ErrCodeValidation, "nobody has bid on this auction yet")
		}

		if err := s.completeSale(tx, auction); err != nil {
			return nil, err
		}
		if err := s.saveState(tx, auction); err != nil {
			return nil, err
		}
		return auction, nil
	})
}

// Delete removes an auction, refunding any escrowed bid. Only the seller
// can delete. The returned auction is the state before deletion.
func (s *AuctionService) Delete(ctx context.Context, guildID string, auctionID uint, userID string) (*models.Auction, error) {
	return txn.Run(ctx, s.coord, txn.Serializable("auction.delete"), func(tx store.Tx) (*models.Auction, error) {
		auction, err := tx.FindAuction(guildID, auctionID, true)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get auction")
		}
		if auction == nil {
			return nil, auctionNotFound(auctionID)
		}
		if auction.SellerUserID != userID {
			return nil, errors.New(errors.ErrCodeForbidden, "only the seller can delete this auction")
		}

		// a sold auction's escrow already went to the seller
		if bidder, ok := auction.Bidder(); ok && !auction.IsSold {
			if err := s.ledger.RefundEscrow(tx, bidder, auction.BidAmount.Decimal); err != nil {
				return nil, err
			}
		}

		rows, err := tx.DeleteAuction(guildID, auctionID)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete auction")
		}
		if rows != 1 {
			return nil, auctionNotFound(auctionID)
		}
		return auction, nil
	})
}

func (s *AuctionService) Get(ctx context.Context, guildID string, auctionID uint) (*models.Auction, error) {
	return txn.Run(ctx, s.coord, txn.ReadOnly("auction.get"), func(tx store.Tx) (*models.Auction, error) {
		auction, err := tx.FindAuction(guildID, auctionID, false)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get auction")
		}
		if auction == nil {
			return nil, auctionNotFound(auctionID)
		}
		return auction, nil
	})
}

// ListOpen returns the guild's open auctions, newest first.
func (s *AuctionService) ListOpen(ctx context.Context, guildID string) ([]models.Auction, error) {
	return txn.Run(ctx, s.coord, txn.ReadOnly("auction.list"), func(tx store.Tx) ([]models.Auction, error) {
		auctions, err := tx.ListOpenAuctions(guildID)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list auctions")
		}
		return auctions, nil
	})
}

func auctionNotFound(id uint) *errors.AppError {
	return errors.Newf(errors.ErrCodeAuctionNotFound, "auction #%d not found", id)
}

func noActiveCharacter(userID string) *errors.AppError {
	return errors.Newf(errors.ErrCodeNoActiveCharacter, "user %s has no active character", userID)
}

func auctionClosed(a *models.Auction) *errors.AppError {
	if a.IsSold && a.HasBid() && a.BidAt != nil {
		return errors.Newf(errors.ErrCodeAuctionClosed, "auction #%d was sold for %s on %s", a.ID, a.BidAmount.Decimal, a.BidAt.Format(time.RFC3339))
	}
	return errors.New(errors.ErrCodeAuctionClosed, fmt.Sprintf("auction #%d is %s", a.ID, a.Status()))
}

// isBusinessError reports whether err is a user facing rejection rather
// than an infrastructure failure.
func isBusinessError(err error) bool {
	var list errors.List
	if errors.As(err, &list) {
		return true
	}
	code := errors.CodeOf(err)
	return code != "" && code != errors.ErrCodeInternalError && code != errors.ErrCodeConcurrencyExhausted
}
