package nix

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a requested system action.
type Kind int

const (
	KindInstall Kind = iota
	KindRemove
	KindUpdate
	KindRollback
	KindSearch
	KindList
	KindBuild
	KindListGenerations
	KindSystemInfo
	KindGarbageCollect
	KindCustom
)

var kindNames = map[Kind]string{
	KindInstall:         "install",
	KindRemove:          "remove",
	KindUpdate:          "update",
	KindRollback:        "rollback",
	KindSearch:          "search",
	KindList:            "list",
	KindBuild:           "build",
	KindListGenerations: "list-generations",
	KindSystemInfo:      "system-info",
	KindGarbageCollect:  "garbage-collect",
	KindCustom:          "custom",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a kind name (as used on the command line) to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
}

// Operation is an immutable description of a requested system action.
// The kind fully determines the backend command template for each tier;
// arguments are always substituted as argv elements, never concatenated
// into shell text.
type Operation struct {
	Kind             Kind
	Args             []string
	Description      string
	Reversible       bool
	NeedsElevated    bool
	PreviewSupported bool
}

// kindProfile carries the safety metadata each kind implies.
type kindProfile struct {
	reversible       bool
	needsElevated    bool
	previewSupported bool
	minArgs          int
}

var kindProfiles = map[Kind]kindProfile{
	KindInstall:         {reversible: true, previewSupported: true, minArgs: 1},
	KindRemove:          {reversible: true, previewSupported: true, minArgs: 1},
	KindUpdate:          {reversible: true, needsElevated: true, previewSupported: true},
	KindRollback:        {reversible: true, needsElevated: true},
	KindSearch:          {minArgs: 1},
	KindList:            {},
	KindBuild:           {previewSupported: true, minArgs: 1},
	KindListGenerations: {},
	KindSystemInfo:      {},
	KindGarbageCollect:  {needsElevated: true, previewSupported: true},
}

// NewOperation builds an Operation for a known kind. Garbage collection is
// deliberately not reversible: freed store paths cannot be recreated from a
// snapshot listing. Custom operations must be built with NewCustom so the
// caller supplies the argv explicitly.
func NewOperation(kind Kind, args ...string) (Operation, error) {
	profile, ok := kindProfiles[kind]
	if !ok {
		return Operation{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	if len(args) < profile.minArgs {
		return Operation{}, fmt.Errorf("operation %s requires at least %d argument(s), got %d",
			kind, profile.minArgs, len(args))
	}

	op := Operation{
		Kind:             kind,
		Args:             append([]string(nil), args...),
		Reversible:       profile.reversible,
		NeedsElevated:    profile.needsElevated,
		PreviewSupported: profile.previewSupported,
	}
	op.Description = describe(kind, op.Args)
	return op, nil
}

// NewCustom builds a custom Operation from an explicit argv. Custom
// operations are never reversible and never previewable, since there is
// no command template to derive a dry-run variant from.
func NewCustom(description string, argv ...string) Operation {
	return Operation{
		Kind:        KindCustom,
		Args:        append([]string(nil), argv...),
		Description: description,
	}
}

// Describe returns the human-readable one-line summary of the operation.
func (op Operation) Describe() string {
	return op.Description
}

func describe(kind Kind, args []string) string {
	switch kind {
	case KindInstall:
		return "Install " + strings.Join(args, " ")
	case KindRemove:
		return "Remove " + strings.Join(args, " ")
	case KindUpdate:
		return "Update system"
	case KindRollback:
		return "Roll back system"
	case KindSearch:
		return "Search for " + strings.Join(args, " ")
	case KindList:
		return "List installed packages"
	case KindBuild:
		return "Build " + strings.Join(args, " ")
	case KindListGenerations:
		return "List generations"
	case KindSystemInfo:
		return "Show system information"
	case KindGarbageCollect:
		return "Collect garbage"
	default:
		return kind.String()
	}
}
