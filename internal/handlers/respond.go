package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mroshb/economy_bot/internal/middleware"
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/mroshb/economy_bot/pkg/logger"
	"github.com/mroshb/economy_bot/pkg/utils"
	"github.com/shopspring/decimal"
)

type contextKey string

const userContextKey contextKey = "user"

type problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error     problem   `json:"error"`
	Problems  []problem `json:"problems,omitempty"`
	IssuesURL string    `json:"issues_url,omitempty"`
}

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case errors.ErrCodeValidation, errors.ErrCodeBidTooLow, errors.ErrCodeSelfBid,
		errors.ErrCodeAuctionClosed, errors.ErrCodeInsufficientFunds,
		errors.ErrCodeNoActiveCharacter, errors.ErrCodeFormula:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeAuctionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeAlreadyExists, errors.ErrCodeEscrowHeld:
		return http.StatusConflict
	case errors.ErrCodeConcurrencyExhausted:
		return http.StatusServiceUnavailable
	case errors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func (h *HandlerManager) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var body errorBody
	var list errors.List
	var appErr *errors.AppError
	switch {
	case errors.As(err, &list) && len(list) > 0:
		body.Error = problem{Code: list[0].Code, Message: list[0].Message}
		for _, e := range list {
			body.Problems = append(body.Problems, problem{Code: e.Code, Message: e.Message})
		}
	case errors.As(err, &appErr):
		body.Error = problem{Code: appErr.Code, Message: appErr.Message}
	default:
		body.Error = problem{Code: errors.ErrCodeInternalError}
	}

	status := statusFor(body.Error.Code)
	switch status {
	case http.StatusInternalServerError:
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body.Error = problem{Code: errors.ErrCodeInternalError, Message: "something went wrong"}
		body.Problems = nil
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
		if h.Config != nil {
			body.IssuesURL = h.Config.IssuesURL
		}
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// requireUser rejects requests without an acting user.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(middleware.UserIDHeader))
		if userID == "" {
			writeJSON(w, http.StatusForbidden, errorBody{Error: problem{
				Code:    errors.ErrCodeForbidden,
				Message: "missing " + middleware.UserIDHeader + " header",
			}})
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userContextKey).(string)
	return id
}

func guildID(r *http.Request) string {
	return chi.URLParam(r, "guildID")
}

func auctionID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "auctionID"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New(errors.ErrCodeValidation, "auction id must be a positive number")
	}
	return uint(id), nil
}

// parseGold parses an amount such as "150", "150gp" or "150 gold".
func parseGold(input string) (decimal.Decimal, error) {
	amount, unit, err := utils.ParseAmount(input)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, errors.ErrCodeValidation, "amount must be a number")
	}
	switch unit {
	case "", "g", "gp", "gold":
		if !models.IsGoldAmount(amount) {
			return decimal.Zero, errors.Newf(errors.ErrCodeValidation, "gold amounts have at most %d decimals", models.GoldScale)
		}
		return amount, nil
	}
	return decimal.Zero, errors.Newf(errors.ErrCodeValidation, "unknown currency %q", unit)
}
