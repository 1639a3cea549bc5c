package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed viewers.toml
var viewersTOML []byte

// ViewerDefinition describes how to start an image viewer.
type ViewerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

type ViewersConfig struct {
	Viewers map[string]ViewerDefinition `toml:"viewers"`
}

// ViewerRegistry holds the built-in viewer definitions plus any from
// ~/.config/tweetsync/viewers.toml.
type ViewerRegistry struct {
	viewers map[string]ViewerDefinition
}

func NewViewerRegistry() (*ViewerRegistry, error) {
	var config ViewersConfig
	if err := toml.Unmarshal(viewersTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing viewers.toml: %w", err)
	}

	r := &ViewerRegistry{viewers: config.Viewers}
	if r.viewers == nil {
		r.viewers = make(map[string]ViewerDefinition)
	}
	if home, err := os.UserHomeDir(); err == nil {
		_ = r.Merge(filepath.Join(home, ".config", "tweetsync", "viewers.toml"))
	}
	return r, nil
}

// Merge overlays definitions from a TOML file; a missing file is not an error.
func (r *ViewerRegistry) Merge(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var user ViewersConfig
	if err := toml.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, def := range user.Viewers {
		r.viewers[name] = def
	}
	return nil
}

// Command builds the invocation of viewer for file. Unknown viewers get the
// file as their only argument.
func (r *ViewerRegistry) Command(viewer, file string) (*exec.Cmd, error) {
	def, ok := r.viewers[viewer]
	if !ok {
		return exec.Command(viewer, file), nil
	}
	if !slices.Contains(def.Platforms, runtime.GOOS) {
		return nil, fmt.Errorf("%s not supported on %s", viewer, runtime.GOOS)
	}

	args := append(slices.Clone(def.args()), file)
	return exec.Command(viewer, args...), nil
}

func (d ViewerDefinition) args() []string {
	switch runtime.GOOS {
	case "darwin":
		if len(d.ArgsDarwin) > 0 {
			return d.ArgsDarwin
		}
	case "linux":
		if len(d.ArgsLinux) > 0 {
			return d.ArgsLinux
		}
	case "windows":
		if len(d.ArgsWindows) > 0 {
			return d.ArgsWindows
		}
	}
	return d.Args
}

// FindAvailable returns the first viewer on PATH.
func FindAvailable(viewers []string) string {
	for _, v := range viewers {
		if _, err := exec.LookPath(v); err == nil {
			return v
		}
	}
	return ""
}
