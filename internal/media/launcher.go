package media

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/pders01/tweetsync/internal/config"
)

var ErrNoViewer = errors.New("no image viewer found")

// Launcher opens downloaded photos with the first available configured viewer.
type Launcher struct {
	viewer   string
	registry *ViewerRegistry
	start    func(*exec.Cmd) error
}

func NewLauncher(cfg config.MediaConfig) *Launcher {
	registry, err := NewViewerRegistry()
	if err != nil {
		registry = &ViewerRegistry{viewers: make(map[string]ViewerDefinition)}
	}

	var viewers []string
	switch runtime.GOOS {
	case "darwin":
		viewers = cfg.Darwin
	case "windows":
		viewers = cfg.Windows
	default:
		viewers = cfg.Linux
	}

	viewer := FindAvailable(viewers)
	if viewer == "" {
		viewer = cfg.DefaultOpener
	}
	if viewer == "" {
		if detector, err := NewTypeDetector(); err == nil {
			viewer = detector.DefaultOpener()
		}
	}

	return &Launcher{viewer: viewer, registry: registry, start: startDetached}
}

// Viewer is the command Open will run.
func (l *Launcher) Viewer() string {
	return l.viewer
}

// Open starts the viewer on a local file and returns without waiting for it.
func (l *Launcher) Open(file string) error {
	if l.viewer == "" {
		return ErrNoViewer
	}
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("opening %s: %w", file, err)
	}

	cmd, err := l.registry.Command(l.viewer, file)
	if err != nil {
		cmd = exec.Command(l.viewer, file)
	}
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.viewer, err)
	}
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
