package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mroshb/economy_bot/internal/services"
)

func (h *HandlerManager) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	chars, err := h.CharacterSvc.List(r.Context(), guildID(r), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"characters": newCharacterViews(chars)})
}

func (h *HandlerManager) handleRegisterCharacter(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name       string  `json:"name"`
		Experience *int64  `json:"experience"`
		Gold       *string `json:"gold"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	req := services.RegisterInput{
		GuildID:    guildID(r),
		UserID:     userID(r),
		Name:       in.Name,
		Experience: in.Experience,
	}
	if in.Gold != nil {
		gold, err := parseGold(*in.Gold)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		req.Gold = &gold
	}

	c, err := h.CharacterSvc.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCharacterView(*c))
}

func (h *HandlerManager) handleActiveCharacter(w http.ResponseWriter, r *http.Request) {
	c, err := h.CharacterSvc.Active(r.Context(), guildID(r), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCharacterView(*c))
}

func (h *HandlerManager) handleActivateCharacter(w http.ResponseWriter, r *http.Request) {
	c, err := h.CharacterSvc.SetActive(r.Context(), guildID(r), userID(r), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCharacterView(*c))
}

func (h *HandlerManager) handleRetireCharacter(w http.ResponseWriter, r *http.Request) {
	res, err := h.CharacterSvc.Retire(r.Context(), guildID(r), userID(r), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"character": newCharacterView(res.Character),
		"deleted":   res.Deleted,
	})
}

func (h *HandlerManager) handleSpend(w http.ResponseWriter, r *http.Request) {
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

	c, err := h.CharacterSvc.Spend(r.Context(), guildID(r), userID(r), amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCharacterView(*c))
}

func (h *HandlerManager) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ToUserID    string `json:"to_user_id"`
		ToCharacter string `json:"to_character"`
		Amount      string `json:"amount"`
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

	log, err := h.CharacterSvc.Transfer(r.Context(), services.TransferInput{
		GuildID:    guildID(r),
		FromUserID: userID(r),
		ToUserID:   in.ToUserID,
		ToCharName: in.ToCharacter,
		Amount:     amount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransferView(log))
}
