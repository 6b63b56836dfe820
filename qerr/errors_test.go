package qerr

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Parsef(12, "unsupported opcode %s", "@foo"), "parse error: line 12: unsupported opcode @foo"},
		{Capacityf("%d qubits", 40), "capacity error: 40 qubits"},
		{Operandf("qubit 3").AtLine(7), "invalid operand: line 7: qubit 3"},
		{&Error{Kind: KindNumerical, Msg: "nan", Err: errors.New("cause")}, "numerical error: nan: cause"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestKindThroughWrapping(t *testing.T) {
	base := Normalizationf("sum is 0.5")

	wrapped := []error{
		base,
		fmt.Errorf("run: %w", base),
		pkgerrors.Wrap(base, "bell.ll"),
		pkgerrors.WithMessage(fmt.Errorf("outer: %w", base), "cli"),
	}
	for _, err := range wrapped {
		if KindOf(err) != KindNormalization {
			t.Errorf("expected normalization kind for %q, got %v", err, KindOf(err))
		}
		if !Is(err, KindNormalization) || Is(err, KindParse) {
			t.Errorf("Is mismatch for %q", err)
		}
		if !errors.Is(err, &Error{Kind: KindNormalization}) {
			t.Errorf("errors.Is should match on kind for %q", err)
		}
	}

	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("expected KindUnknown for an unclassified error")
	}
	if Is(nil, KindUnknown) {
		t.Error("nil error must not match any kind")
	}
}

func TestAtLineKeepsFirstLine(t *testing.T) {
	err := Parsef(3, "bad").AtLine(9)
	if Line(err) != 3 {
		t.Errorf("expected line 3 to be kept, got %d", Line(err))
	}
	if Line(Capacityf("x")) != 0 {
		t.Error("expected no line")
	}
	if Line(pkgerrors.Wrap(Operandf("x").AtLine(4), "ctx")) != 4 {
		t.Error("expected line through wrapping")
	}
}
