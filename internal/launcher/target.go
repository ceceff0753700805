package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Target is the script to run. Path may be a bare command name looked up in
// PATH or a file path; relative file paths are taken against Dir.
type Target struct {
	Path string
	Args []string
	Dir  string
	// Env replaces the harness environment when non-nil.
	Env []string
}

func (t Target) String() string {
	if len(t.Args) == 0 {
		return t.Path
	}
	return t.Path + " " + strings.Join(t.Args, " ")
}

// resolve returns the executable path that will be started.
func (t Target) resolve() (string, error) {
	if t.Path == "" {
		return "", &LaunchError{Path: t.Path, Cause: fmt.Errorf("empty script path")}
	}

	if t.Dir != "" {
		info, err := os.Stat(t.Dir)
		if err != nil {
			return "", &LaunchError{Path: t.Path, Cause: fmt.Errorf("working directory: %w", err)}
		}
		if !info.IsDir() {
			return "", &LaunchError{Path: t.Path, Cause: fmt.Errorf("working directory %s is not a directory", t.Dir)}
		}
	}

	p := t.Path
	if strings.ContainsRune(p, filepath.Separator) && !filepath.IsAbs(p) && t.Dir != "" {
		p = filepath.Join(t.Dir, p)
	}
	if strings.ContainsRune(p, filepath.Separator) {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", &LaunchError{Path: t.Path, Cause: err}
		}
		p = abs
	}

	resolved, err := exec.LookPath(p)
	if err != nil {
		return "", &LaunchError{Path: t.Path, Cause: err}
	}
	return resolved, nil
}
