package handlers

import (
	"net/http"

	"github.com/mroshb/economy_bot/internal/services"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/mroshb/economy_bot/pkg/utils"
	"github.com/shopspring/decimal"
)

func (h *HandlerManager) handleRewards(w http.ResponseWriter, r *http.Request) {
	summary, err := h.RewardSvc.Rewards(r.Context(), guildID(r), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pools := make([]map[string]any, 0, len(summary.Pools))
	for _, p := range summary.Pools {
		pools = append(pools, map[string]any{"name": p.Name, "available": p.Available})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pools":  pools,
		"values": summary.Values,
	})
}

// handleGrant is issued by the grantor (the acting user).
func (h *HandlerManager) handleGrant(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Recipients []characterRef `json:"recipients"`
		XP         int64          `json:"xp"`
		Gold       string         `json:"gold"`
		Extra      float64        `json:"extra"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	gold := decimal.Zero
	if in.Gold != "" {
		var err error
		if gold, err = parseGold(in.Gold); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	recipients := make([]services.Recipient, 0, len(in.Recipients))
	for _, c := range in.Recipients {
		recipients = append(recipients, services.Recipient{UserID: c.UserID, CharName: c.Name})
	}

	res, err := h.RewardSvc.Grant(r.Context(), services.GrantInput{
		GuildID:       guildID(r),
		GrantorUserID: userID(r),
		Recipients:    recipients,
		RewardedXP:    in.XP,
		RewardedGold:  gold,
		ExtraValue:    in.Extra,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"characters": newCharacterViews(res.Characters),
		"values":     res.Values,
	})
}

func (h *HandlerManager) handleConsume(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Amount float64  `json:"amount"`
		Vars   []string `json:"vars"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	ok, err := h.RewardSvc.Consume(r.Context(), guildID(r), userID(r), in.Amount, in.Vars)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"consumed": ok})
}

// handleRedeem accepts the kind either explicitly or as the amount's unit,
// e.g. "400xp".
func (h *HandlerManager) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Pool      string `json:"pool"`
		Amount    string `json:"amount"`
		Kind      string `json:"kind"`
		Character string `json:"character"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, unit, err := utils.ParseAmount(in.Amount)
	if err != nil {
		h.writeError(w, r, errors.Wrap(err, errors.ErrCodeValidation, "amount must be a number"))
		return
	}
	kind := in.Kind
	if kind == "" {
		kind = unit
	}

	res, err := h.RewardSvc.Redeem(r.Context(), services.RedeemInput{
		GuildID:  guildID(r),
		UserID:   userID(r),
		Pool:     in.Pool,
		Amount:   amount,
		Kind:     kind,
		CharName: in.Character,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"character": newCharacterView(res.Character),
		"remaining": res.Remaining,
	})
}
