package xdg

import (
	"os"
	"path/filepath"
)

// Dirs resolves XDG base directories, falling back to the defaults of the
// base directory layout when the variables are unset.
type Dirs struct {
	configHome string
	configDirs []string
}

func New() *Dirs {
	return newFrom(os.Getenv)
}

func newFrom(getenv func(string) string) *Dirs {
	home := getenv("HOME")
	if h, err := os.UserHomeDir(); err == nil && home == "" {
		home = h
	}
	if home == "" {
		home = "/tmp"
	}

	d := &Dirs{configHome: getenv("XDG_CONFIG_HOME")}
	if d.configHome == "" {
		d.configHome = filepath.Join(home, ".config")
	}

	if dirs := getenv("XDG_CONFIG_DIRS"); dirs != "" {
		d.configDirs = filepath.SplitList(dirs)
	} else {
		d.configDirs = []string{"/etc/xdg"}
	}
	return d
}

// AppConfigFiles lists name inside the app's config directories, most
// specific first.
func (d *Dirs) AppConfigFiles(app, name string) []string {
	files := []string{filepath.Join(d.configHome, app, name)}
	for _, dir := range d.configDirs {
		files = append(files, filepath.Join(dir, app, name))
	}
	return files
}
