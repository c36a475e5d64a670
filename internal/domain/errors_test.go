package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     Kind
		internal bool
	}{
		{name: "Rejection", err: Reject(KindNotYourTurn, "it is %s's turn", "bob"), want: KindNotYourTurn},
		{name: "WrappedRejection", err: fmt.Errorf("submit: %w", Reject(KindEmptyColorPile, "no white tiles")), want: KindEmptyColorPile},
		{name: "Invariant", err: Invariantf("tile count %d", 27), want: KindInternal, internal: true},
		{name: "Plain", err: errors.New("boom"), want: KindInternal, internal: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf = %s, want %s", got, tt.want)
			}
			if IsInternal(tt.err) != tt.internal {
				t.Fatalf("IsInternal = %v, want %v", !tt.internal, tt.internal)
			}
		})
	}
	if IsInternal(nil) {
		t.Fatal("nil is not an internal fault")
	}
}

func TestDetailHidesInternalMessages(t *testing.T) {
	d := Detail(Reject(KindIllegalPlay, "RED 3 does not match BLUE"))
	if d.Kind != KindIllegalPlay || d.Message != "RED 3 does not match BLUE" {
		t.Fatalf("unexpected detail %+v", d)
	}

	d = Detail(Invariantf("deck holds %d tiles", 99))
	if d.Kind != KindInternal || d.Message != "internal error" {
		t.Fatalf("internal detail leaked: %+v", d)
	}
}
