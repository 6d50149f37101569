package repositories

import (
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/pkg/errors"
	"gorm.io/gorm"
)

const openAuction = "guild_id = ? AND NOT is_sold AND NOT is_canceled"

type AuctionRepository struct {
	db *gorm.DB
}

func NewAuctionRepository(db *gorm.DB) *AuctionRepository {
	return &AuctionRepository{db: db}
}

func (r *AuctionRepository) FindAuction(guildID string, id uint, lock bool) (*models.Auction, error) {
	var a models.Auction
	err := lockFor(r.db, lock).Where("guild_id = ? AND id = ?", guildID, id).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *AuctionRepository) CreateAuction(a *models.Auction) error {
	return translate(r.db.Create(a).Error)
}

// SaveAuctionState writes only the mutable bid and status columns
func (r *AuctionRepository) SaveAuctionState(a *models.Auction) (int64, error) {
	result := r.db.Model(&models.Auction{}).
		Where("guild_id = ? AND id = ?", a.GuildID, a.ID).
		Updates(map[string]interface{}{
			"bid_amount":       a.BidAmount,
			"bidder_user_id":   a.BidderUserID,
			"bidder_char_name": a.BidderCharName,
			"bid_at":           a.BidAt,
			"is_sold":          a.IsSold,
			"is_canceled":      a.IsCanceled,
		})
	return result.RowsAffected, translate(result.Error)
}

func (r *AuctionRepository) DeleteAuction(guildID string, id uint) (int64, error) {
	result := r.db.Where("guild_id = ? AND id = ?", guildID, id).Delete(&models.Auction{})
	return result.RowsAffected, translate(result.Error)
}

func (r *AuctionRepository) ListOpenAuctions(guildID string) ([]models.Auction, error) {
	var auctions []models.Auction
	err := r.db.Where(openAuction, guildID).Order("id DESC").Find(&auctions).Error
	return auctions, translate(err)
}

func (r *AuctionRepository) CountOpenAuctionsInvolving(key models.CharacterKey) (int64, error) {
	var count int64
	err := r.db.Model(&models.Auction{}).
		Where(openAuction, key.GuildID).
		Where("(user_id = ? AND character_name = ?) OR (bidder_user_id = ? AND bidder_char_name = ?)",
			key.UserID, key.Name, key.UserID, key.Name).
		Count(&count).Error
	return count, translate(err)
}
