package handlers

import (
	"net/http"

	"github.com/mroshb/economy_bot/internal/services"
	"github.com/shopspring/decimal"
)

func (h *HandlerManager) handleListAuctions(w http.ResponseWriter, r *http.Request) {
	auctions, err := h.AuctionSvc.ListOpen(r.Context(), guildID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]auctionView, 0, len(auctions))
	for i := range auctions {
		views = append(views, newAuctionView(&auctions[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"auctions": views})
}

func (h *HandlerManager) handleCreateAuction(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title            string  `json:"title"`
		Description      string  `json:"description"`
		OpeningBid       string  `json:"opening_bid"`
		MinimumIncrement string  `json:"minimum_increment"`
		InstaBuy         *string `json:"insta_buy"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	req := services.CreateAuctionInput{
		GuildID:      guildID(r),
		SellerUserID: userID(r),
		Title:        in.Title,
		Description:  in.Description,
	}
	var err error
	if req.OpeningBid, err = parseGold(in.OpeningBid); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.MinimumIncrement, err = parseGold(in.MinimumIncrement); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.InstaBuy != nil {
		var instaBuy decimal.Decimal
		if instaBuy, err = parseGold(*in.InstaBuy); err != nil {
			h.writeError(w, r, err)
			return
		}
		req.InstaBuy = &instaBuy
	}

	a, err := h.AuctionSvc.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAuctionView(a))
}

func (h *HandlerManager) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	id, err := auctionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.AuctionSvc.Get(r.Context(), guildID(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuctionView(a))
}

func (h *HandlerManager) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	id, err := auctionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := parseGold(in.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.AuctionSvc.PlaceBid(r.Context(), guildID(r), id, userID(r), amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body := map[string]any{
		"auction": newAuctionView(res.Auction),
		"bidder":  newCharacterView(res.Bidder),
		"sold":    res.Sold,
	}
	if res.Refunded != nil {
		body["refunded"] = map[string]any{
			"user_id": res.Refunded.UserID,
			"name":    res.Refunded.Name,
			"amount":  res.RefundedAmount,
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *HandlerManager) handleSellAuction(w http.ResponseWriter, r *http.Request) {
	id, err := auctionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.AuctionSvc.Sell(r.Context(), guildID(r), id, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuctionView(a))
}

func (h *HandlerManager) handleDeleteAuction(w http.ResponseWriter, r *http.Request) {
	id, err := auctionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.AuctionSvc.Delete(r.Context(), guildID(r), id, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuctionView(a))
}
