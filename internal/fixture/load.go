package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pelletier/go-toml/v2"
	"github.com/programme-lv/harness/internal/capture"
	"github.com/programme-lv/harness/internal/launcher"
	"github.com/programme-lv/harness/internal/verifier"
	"gopkg.in/yaml.v3"
)

// Load reads a fixture file (.toml, .yaml or .yml). Relative directories and
// golden files resolve against the fixture file's own directory.
func Load(path string) ([]Fixture, error) {
	return LoadWithBase(path, launcher.DefaultLimits())
}

// LoadWithBase is Load with base supplying every limit that neither the
// fixture nor the file defaults set.
func LoadWithBase(path string, base launcher.Limits) ([]Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseWithBase(data, filepath.Ext(path), filepath.Dir(path), base)
}

// Parse decodes fixture file contents. ext selects the format.
func Parse(data []byte, ext, baseDir string) ([]Fixture, error) {
	return ParseWithBase(data, ext, baseDir, launcher.DefaultLimits())
}

func ParseWithBase(data []byte, ext, baseDir string, base launcher.Limits) ([]Fixture, error) {
	var root fileRoot
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported fixture file extension %q", ext)
	}

	names := mapset.NewSet[string]()
	fixtures := make([]Fixture, 0, len(root.Fixtures))
	for i, entry := range root.Fixtures {
		if entry.Name == "" {
			return nil, fmt.Errorf("fixture #%d has no name", i+1)
		}
		if !names.Add(entry.Name) {
			return nil, fmt.Errorf("duplicate fixture name %q", entry.Name)
		}
		f, err := build(entry, root.Defaults, baseDir, base)
		if err != nil {
			return nil, fmt.Errorf("fixture %q: %w", entry.Name, err)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

func build(entry fileFixture, def fileDefaults, baseDir string, base launcher.Limits) (Fixture, error) {
	if len(entry.Command) == 0 || entry.Command[0] == "" {
		return Fixture{}, fmt.Errorf("command is empty")
	}

	dir := entry.Dir
	if dir == "" {
		dir = def.Dir
	}
	if dir == "" {
		dir = "."
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(baseDir, dir)
	}

	f := Fixture{
		Name: entry.Name,
		Tags: entry.Tags,
		Target: launcher.Target{
			Path: entry.Command[0],
			Args: entry.Command[1:],
			Dir:  dir,
		},
		Limits: buildLimits(entry, def, base),
		Options: verifier.Options{
			NormalizeNewlines: boolOr(entry.NormalizeNewlines, def.NormalizeNewlines),
			TrimTrailingSpace: boolOr(entry.TrimTrailingSpace, def.TrimTrailingSpace),
		},
	}
	if err := f.Limits.Validate(); err != nil {
		return Fixture{}, err
	}

	hasStreams := entry.Stdout != nil || entry.StdoutFile != "" || entry.Stderr != nil || entry.StderrFile != ""
	if hasStreams && len(entry.Transcript) > 0 {
		return Fixture{}, fmt.Errorf("expect either stdout/stderr or a transcript, not both")
	}

	var err error
	f.Expect.Stdout, f.Expect.CheckStdout, err = golden(entry.Stdout, entry.StdoutFile, baseDir)
	if err != nil {
		return Fixture{}, fmt.Errorf("stdout: %w", err)
	}
	f.Expect.Stderr, f.Expect.CheckStderr, err = golden(entry.Stderr, entry.StderrFile, baseDir)
	if err != nil {
		return Fixture{}, fmt.Errorf("stderr: %w", err)
	}

	if len(entry.Transcript) > 0 {
		f.Expect.CheckTranscript = true
		for i, seg := range entry.Transcript {
			stream, ok := capture.ParseStream(seg.Stream)
			if !ok {
				return Fixture{}, fmt.Errorf("transcript segment #%d: unknown stream %q", i+1, seg.Stream)
			}
			var inline *string
			if seg.File == "" {
				inline = &seg.Data
			}
			data, _, err := golden(inline, seg.File, baseDir)
			if err != nil {
				return Fixture{}, fmt.Errorf("transcript segment #%d: %w", i+1, err)
			}
			f.Expect.Transcript = append(f.Expect.Transcript, capture.Segment{Stream: stream, Data: data})
		}
	}

	if entry.ExitCode != nil {
		f.Expect.ExitCode = *entry.ExitCode
		f.Expect.CheckExitCode = true
	}
	return f, nil
}

func buildLimits(entry fileFixture, def fileDefaults, base launcher.Limits) launcher.Limits {
	limits := base
	if ms := int64Or(entry.TimeoutMs, def.TimeoutMs); ms != 0 {
		limits.Timeout = time.Duration(ms) * time.Millisecond
	}
	if n := int64Or(entry.MaxBytes, def.MaxBytes); n != 0 {
		limits = limits.WithMaxBytes(n)
	}
	if n := int64Or(entry.MemoryKiB, def.MemoryKiB); n != 0 {
		limits.MemoryKiB = n
	}
	if ms := int64Or(entry.CpuMs, def.CpuMs); ms != 0 {
		limits.CpuTime = time.Duration(ms) * time.Millisecond
	}
	return limits
}

// golden returns inline content or the content of file, and whether anything
// was specified at all.
func golden(inline *string, file, baseDir string) ([]byte, bool, error) {
	if inline != nil && file != "" {
		return nil, false, fmt.Errorf("both inline content and file %q given", file)
	}
	if inline != nil {
		return []byte(*inline), true, nil
	}
	if file == "" {
		return nil, false, nil
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(baseDir, file)
	}
	data, err := ReadGolden(file)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// ReadGolden reads a golden file, decompressing it when it ends in .zst.
func ReadGolden(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden file: %w", err)
	}
	if filepath.Ext(path) != ".zst" {
		return data, nil
	}

	d, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer d.Close()
	out, err := d.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	return out, nil
}

func int64Or(v *int64, def int64) int64 {
	if v != nil {
		return *v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}
