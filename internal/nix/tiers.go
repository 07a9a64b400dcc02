package nix

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Safety grades how much protection a tier gives the system when it runs a
// mutating operation.
type Safety int

const (
	SafetyHighest Safety = iota
	SafetyHigh
	SafetyMedium
	SafetyUserDependent
)

func (s Safety) String() string {
	switch s {
	case SafetyHighest:
		return "Highest"
	case SafetyHigh:
		return "High"
	case SafetyMedium:
		return "Medium"
	case SafetyUserDependent:
		return "User-dependent"
	default:
		return fmt.Sprintf("safety(%d)", int(s))
	}
}

// Command is one tier's concrete form of an operation. Either Argv is set
// (a subprocess invocation) or Text is set (a prose instruction block from
// the manual tier, which needs no subprocess at all).
type Command struct {
	Argv []string
	Text string
}

// String renders the command for display and history records.
func (c Command) String() string {
	if len(c.Argv) > 0 {
		return strings.Join(c.Argv, " ")
	}
	return "(manual instructions)"
}

// Tier is one ranked backend strategy. Tiers only construct commands and
// report capabilities; running the command (with timeouts and retries) is
// the executor's job, so a single discipline applies to every tier.
type Tier interface {
	Name() string
	Safety() Safety
	Features() []string
	Supports(kind Kind) bool

	// Command returns the tier's concrete form of the operation, or
	// ErrTierUnsupported when the tier has no form for the kind.
	Command(op Operation) (Command, error)

	// DryRunCommand returns the side-effect-free variant, with ok=false
	// when the operation has no dry-run form on this tier.
	DryRunCommand(op Operation) (Command, bool)
}

// rebuildTier drives nixos-rebuild, the most protected path for whole-system
// operations: every switch creates a generation the system can return to.
type rebuildTier struct{}

func (rebuildTier) Name() string   { return "nixos-rebuild" }
func (rebuildTier) Safety() Safety { return SafetyHighest }
func (rebuildTier) Features() []string {
	return []string{"Atomic system switches", "Generation per change"}
}

func (rebuildTier) Supports(kind Kind) bool {
	switch kind {
	case KindUpdate, KindRollback, KindListGenerations, KindSystemInfo:
		return true
	}
	return false
}

func (t rebuildTier) Command(op Operation) (Command, error) {
	switch op.Kind {
	case KindUpdate:
		return Command{Argv: []string{"nixos-rebuild", "switch", "--upgrade"}}, nil
	case KindRollback:
		return Command{Argv: []string{"nixos-rebuild", "switch", "--rollback"}}, nil
	case KindListGenerations:
		return Command{Argv: []string{"nixos-rebuild", "list-generations"}}, nil
	case KindSystemInfo:
		return Command{Argv: []string{"nixos-version"}}, nil
	}
	return Command{}, fmt.Errorf("%w: %s on %s", ErrTierUnsupported, op.Kind, t.Name())
}

func (t rebuildTier) DryRunCommand(op Operation) (Command, bool) {
	if op.Kind == KindUpdate {
		// dry-activate builds the new system and reports what would change
		// without switching to it.
		return Command{Argv: []string{"nixos-rebuild", "dry-activate", "--upgrade"}}, true
	}
	return Command{}, false
}

// profileTier drives the modern `nix profile` interface.
type profileTier struct{}

func (profileTier) Name() string   { return "nix profile" }
func (profileTier) Safety() Safety { return SafetyHigh }
func (profileTier) Features() []string {
	return []string{"Modern interface", "Profile management"}
}

func (profileTier) Supports(kind Kind) bool {
	switch kind {
	case KindInstall, KindRemove, KindUpdate, KindRollback, KindSearch,
		KindList, KindBuild, KindListGenerations, KindSystemInfo,
		KindGarbageCollect:
		return true
	}
	return false
}

func (t profileTier) Command(op Operation) (Command, error) {
	switch op.Kind {
	case KindInstall:
		argv := []string{"nix", "profile", "install"}
		for _, pkg := range op.Args {
			argv = append(argv, "nixpkgs#"+pkg)
		}
		return Command{Argv: argv}, nil
	case KindRemove:
		return Command{Argv: append([]string{"nix", "profile", "remove"}, op.Args...)}, nil
	case KindUpdate:
		return Command{Argv: []string{"nix", "profile", "upgrade", "--all"}}, nil
	case KindRollback:
		return Command{Argv: []string{"nix", "profile", "rollback"}}, nil
	case KindSearch:
		return Command{Argv: append([]string{"nix", "search", "nixpkgs"}, op.Args...)}, nil
	case KindList:
		return Command{Argv: []string{"nix", "profile", "list"}}, nil
	case KindBuild:
		return Command{Argv: append([]string{"nix", "build"}, op.Args...)}, nil
	case KindListGenerations:
		return Command{Argv: []string{"nix", "profile", "history"}}, nil
	case KindSystemInfo:
		return Command{Argv: []string{"nix", "--version"}}, nil
	case KindGarbageCollect:
		return Command{Argv: []string{"nix", "store", "gc"}}, nil
	}
	return Command{}, fmt.Errorf("%w: %s on %s", ErrTierUnsupported, op.Kind, t.Name())
}

func (t profileTier) DryRunCommand(op Operation) (Command, bool) {
	if !op.PreviewSupported {
		return Command{}, false
	}
	cmd, err := t.Command(op)
	if err != nil {
		return Command{}, false
	}
	switch op.Kind {
	case KindInstall, KindRemove, KindUpdate, KindBuild:
		cmd.Argv = append(cmd.Argv, "--dry-run")
		return cmd, true
	case KindGarbageCollect:
		return Command{Argv: []string{"nix", "store", "gc", "--dry-run"}}, true
	}
	return Command{}, false
}

// envTier drives the legacy nix-env interface, available on every nix
// installation regardless of experimental-feature flags.
type envTier struct{}

func (envTier) Name() string   { return "nix-env" }
func (envTier) Safety() Safety { return SafetyMedium }
func (envTier) Features() []string {
	return []string{"Universal compatibility"}
}

func (envTier) Supports(kind Kind) bool {
	switch kind {
	case KindInstall, KindRemove, KindUpdate, KindRollback, KindSearch,
		KindList, KindBuild, KindListGenerations, KindSystemInfo,
		KindGarbageCollect:
		return true
	}
	return false
}

func (t envTier) Command(op Operation) (Command, error) {
	switch op.Kind {
	case KindInstall:
		argv := []string{"nix-env", "-iA"}
		for _, pkg := range op.Args {
			argv = append(argv, "nixos."+pkg)
		}
		return Command{Argv: argv}, nil
	case KindRemove:
		return Command{Argv: append([]string{"nix-env", "-e"}, op.Args...)}, nil
	case KindUpdate:
		return Command{Argv: []string{"nix-env", "-u"}}, nil
	case KindRollback:
		return Command{Argv: []string{"nix-env", "--rollback"}}, nil
	case KindSearch:
		return Command{Argv: append([]string{"nix-env", "-qaP"}, op.Args...)}, nil
	case KindList:
		return Command{Argv: []string{"nix-env", "-q"}}, nil
	case KindBuild:
		return Command{Argv: append([]string{"nix-build", "<nixpkgs>", "-A"}, op.Args...)}, nil
	case KindListGenerations:
		return Command{Argv: []string{"nix-env", "--list-generations"}}, nil
	case KindSystemInfo:
		return Command{Argv: []string{"nix-env", "--version"}}, nil
	case KindGarbageCollect:
		return Command{Argv: []string{"nix-collect-garbage"}}, nil
	}
	return Command{}, fmt.Errorf("%w: %s on %s", ErrTierUnsupported, op.Kind, t.Name())
}

func (t envTier) DryRunCommand(op Operation) (Command, bool) {
	if !op.PreviewSupported {
		return Command{}, false
	}
	cmd, err := t.Command(op)
	if err != nil {
		return Command{}, false
	}
	switch op.Kind {
	case KindInstall, KindRemove, KindUpdate, KindGarbageCollect:
		cmd.Argv = append(cmd.Argv, "--dry-run")
		return cmd, true
	case KindBuild:
		cmd.Argv = append(cmd.Argv, "--dry-run")
		return cmd, true
	}
	return Command{}, false
}

// manualTier produces prose instructions instead of running anything. It is
// always available and always "succeeds", so the fallback loop can never
// exhaust every tier without producing a result.
type manualTier struct{}

func (manualTier) Name() string   { return "manual instructions" }
func (manualTier) Safety() Safety { return SafetyUserDependent }
func (manualTier) Features() []string {
	return []string{"Always available", "Educational"}
}

func (manualTier) Supports(Kind) bool { return true }

func (t manualTier) Command(op Operation) (Command, error) {
	return Command{Text: Instructions(op)}, nil
}

func (manualTier) DryRunCommand(Operation) (Command, bool) {
	return Command{}, false
}

// Instructions renders a manual step-by-step block for an operation.
func Instructions(op Operation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To %s yourself, follow these steps:\n", strings.ToLower(op.Describe()))
	b.WriteString("  1. Open your terminal\n")

	var cmd string
	switch op.Kind {
	case KindInstall:
		cmd = "nix-env -iA nixos." + strings.Join(op.Args, " nixos.")
	case KindRemove:
		cmd = "nix-env -e " + strings.Join(op.Args, " ")
	case KindUpdate:
		cmd = "sudo nixos-rebuild switch --upgrade"
	case KindRollback:
		cmd = "sudo nixos-rebuild switch --rollback"
	case KindSearch:
		cmd = "nix search nixpkgs " + strings.Join(op.Args, " ")
	case KindList:
		cmd = "nix-env -q"
	case KindBuild:
		cmd = "nix build " + strings.Join(op.Args, " ")
	case KindListGenerations:
		cmd = "nix-env --list-generations"
	case KindSystemInfo:
		cmd = "nixos-version"
	case KindGarbageCollect:
		cmd = "sudo nix-collect-garbage -d"
	default:
		cmd = strings.Join(op.Args, " ")
	}
	fmt.Fprintf(&b, "  2. Type: %s\n", cmd)
	b.WriteString("  3. Press Enter and wait for the command to finish\n")
	if op.NeedsElevated {
		b.WriteString("  4. You will be asked for your password (this change needs elevated privileges)\n")
	}
	return b.String()
}

// probeSpec pairs a candidate tier with the command that proves it works.
type probeSpec struct {
	tier  Tier
	probe []string
}

// probeTimeout bounds each availability probe at startup.
const probeTimeout = 5 * time.Second

// Rank probes the candidate backends once and returns the ranked tier list,
// ordered by preference. The list is computed at startup and never mutated
// afterwards; the manual tier is appended unconditionally so the list is
// never empty and fallback always has a final resort.
func Rank(ctx context.Context, runner Runner) []Tier {
	candidates := []probeSpec{
		{tier: rebuildTier{}, probe: []string{"nixos-rebuild", "--version"}},
		{tier: profileTier{}, probe: []string{"nix", "profile", "--help"}},
		{tier: envTier{}, probe: []string{"nix-env", "--version"}},
	}

	var tiers []Tier
	for _, c := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		result, err := runner.Run(probeCtx, c.probe)
		cancel()
		if err != nil || result.ExitCode != 0 {
			continue
		}
		tiers = append(tiers, c.tier)
	}

	return append(tiers, manualTier{})
}

// AllTiers returns every tier unconditionally ranked, skipping probes.
// Useful for display (doctor) and for tests.
func AllTiers() []Tier {
	return []Tier{rebuildTier{}, profileTier{}, envTier{}, manualTier{}}
}
