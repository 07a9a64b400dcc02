package nix

import "fmt"

// PreviewText returns the side-effect-free rendering of an operation on a
// tier: the dry-run command when one exists, otherwise a synthesized
// description of what execution would do.
func PreviewText(t Tier, op Operation) string {
	if cmd, ok := t.DryRunCommand(op); ok {
		return cmd.String()
	}
	cmd, err := t.Command(op)
	if err != nil {
		return fmt.Sprintf("Would execute: %s (no command form on tier %s)", op.Describe(), t.Name())
	}
	return fmt.Sprintf("Would execute: %s (requires elevated privilege: %s)",
		cmd.String(), yesNo(op.NeedsElevated))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
