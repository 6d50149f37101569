package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(cause, ErrCodeInternalError, "failed to save")

	if !stderrors.Is(err, cause) {
		t.Errorf("errors.Is(wrapped, cause) = false, want true")
	}
	if got := err.Error(); got != "INTERNAL_ERROR: failed to save (boom)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", stderrors.New("x"), ""},
		{"app error", New(ErrCodeNotFound, "missing"), ErrCodeNotFound},
		{"wrapped app error", fmt.Errorf("ctx: %w", New(ErrCodeBidTooLow, "low")), ErrCodeBidTooLow},
		{"list", List{New(ErrCodeSelfBid, "a"), New(ErrCodeBidTooLow, "b")}, ErrCodeSelfBid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListHasCode(t *testing.T) {
	var list List
	if list.OrNil() != nil {
		t.Fatalf("empty List.OrNil() should be nil")
	}

	list = append(list, New(ErrCodeInsufficientFunds, "poor"), New(ErrCodeAuctionClosed, "closed"))
	err := list.OrNil()

	if !HasCode(err, ErrCodeAuctionClosed) {
		t.Errorf("HasCode(AUCTION_CLOSED) = false, want true")
	}
	if HasCode(err, ErrCodeSelfBid) {
		t.Errorf("HasCode(SELF_BID) = true, want false")
	}
	if got := len(list.Codes()); got != 2 {
		t.Errorf("len(Codes()) = %d, want 2", got)
	}
}
