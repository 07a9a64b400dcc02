package nix

import (
	"errors"
	"strings"
	"testing"
)

// TestNewOperation_Install_SetsSafetyMetadata verifies that install
// operations are reversible, previewable, and unprivileged.
func TestNewOperation_Install_SetsSafetyMetadata(t *testing.T) {
	op, err := NewOperation(KindInstall, "firefox")
	if err != nil {
		t.Fatalf("NewOperation() failed: %v", err)
	}

	if !op.Reversible {
		t.Error("install should be reversible")
	}
	if !op.PreviewSupported {
		t.Error("install should support preview")
	}
	if op.NeedsElevated {
		t.Error("install should not need elevated privileges")
	}
	if op.Description != "Install firefox" {
		t.Errorf("Description = %q; want %q", op.Description, "Install firefox")
	}
}

// TestNewOperation_GarbageCollect_NotReversible verifies that gc is never
// marked reversible: freed store paths cannot be restored from a snapshot.
func TestNewOperation_GarbageCollect_NotReversible(t *testing.T) {
	op, err := NewOperation(KindGarbageCollect)
	if err != nil {
		t.Fatalf("NewOperation() failed: %v", err)
	}

	if op.Reversible {
		t.Error("garbage collection must not be reversible")
	}
	if !op.NeedsElevated {
		t.Error("garbage collection should need elevated privileges")
	}
}

// TestNewOperation_MissingArgs_ReturnsError verifies that kinds with a
// minimum argument count reject empty argument lists.
func TestNewOperation_MissingArgs_ReturnsError(t *testing.T) {
	for _, kind := range []Kind{KindInstall, KindRemove, KindSearch, KindBuild} {
		if _, err := NewOperation(kind); err == nil {
			t.Errorf("NewOperation(%s) with no args should fail", kind)
		}
	}
}

// TestNewOperation_UnknownKind_ReturnsErrUnsupportedKind verifies the
// sentinel error for kinds with no profile.
func TestNewOperation_UnknownKind_ReturnsErrUnsupportedKind(t *testing.T) {
	_, err := NewOperation(Kind(999))
	if err == nil {
		t.Fatal("NewOperation() with unknown kind should fail")
	}
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("error = %v; want errors.Is(err, ErrUnsupportedKind)", err)
	}
}

// TestNewOperation_CopiesArgs verifies the operation does not alias the
// caller's slice.
func TestNewOperation_CopiesArgs(t *testing.T) {
	args := []string{"firefox"}
	op, err := NewOperation(KindInstall, args...)
	if err != nil {
		t.Fatalf("NewOperation() failed: %v", err)
	}

	args[0] = "mutated"
	if op.Args[0] != "firefox" {
		t.Errorf("operation args aliased caller slice: got %q", op.Args[0])
	}
}

// TestNewCustom_NeverReversibleOrPreviewable verifies custom operations
// carry no safety affordances.
func TestNewCustom_NeverReversibleOrPreviewable(t *testing.T) {
	op := NewCustom("run maintenance script", "sh", "-c", "true")

	if op.Kind != KindCustom {
		t.Errorf("Kind = %s; want %s", op.Kind, KindCustom)
	}
	if op.Reversible {
		t.Error("custom operations must not be reversible")
	}
	if op.PreviewSupported {
		t.Error("custom operations must not claim preview support")
	}
	if op.Describe() != "run maintenance script" {
		t.Errorf("Describe() = %q; want the caller-supplied description", op.Describe())
	}
}

// TestParseKind_RoundTrips verifies every named kind parses back to itself.
func TestParseKind_RoundTrips(t *testing.T) {
	for kind, name := range kindNames {
		parsed, err := ParseKind(name)
		if err != nil {
			t.Errorf("ParseKind(%q) failed: %v", name, err)
			continue
		}
		if parsed != kind {
			t.Errorf("ParseKind(%q) = %s; want %s", name, parsed, kind)
		}
	}

	if _, err := ParseKind("frobnicate"); err == nil {
		t.Error("ParseKind of unknown name should fail")
	}
}

// TestDescribe_MultiplePackages verifies descriptions join all arguments.
func TestDescribe_MultiplePackages(t *testing.T) {
	op, err := NewOperation(KindRemove, "ripgrep", "fd")
	if err != nil {
		t.Fatalf("NewOperation() failed: %v", err)
	}
	if !strings.Contains(op.Describe(), "ripgrep fd") {
		t.Errorf("Describe() = %q; want it to mention both packages", op.Describe())
	}
}
