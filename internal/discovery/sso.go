package discovery

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// SSOLogin runs "aws sso login" for profile, attached to the given streams so
// the user can complete the device authorization flow.
func SSOLogin(ctx context.Context, awsBin, profile string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, awsBin, "sso", "login", "--profile", profile)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("aws sso login for profile %q failed: %w", profile, err)
	}
	return nil
}
