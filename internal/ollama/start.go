package ollama

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"proof/internal/utils"
)

// startProcess spawns `<binary> serve` detached from this process. The
// server is left running when the app exits.
func (c *Client) startProcess(ctx context.Context) error {
	path, err := exec.LookPath(c.cfg.Binary)
	if err != nil {
		path, err = findInstalledBinary()
		if err != nil {
			return err
		}
	}

	cmd := exec.Command(path, "serve")
	cmd.Env = os.Environ()
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", path, err)
	}
	c.logf("started %s serve (pid %d)", path, cmd.Process.Pid)
	return cmd.Process.Release()
}

func findInstalledBinary() (string, error) {
	for _, p := range installPaths() {
		if utils.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("ollama not found in PATH or common install locations")
}
