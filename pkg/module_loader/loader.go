package module_loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Extension is the only file extension the loader picks up.
const Extension = ".toml"

var (
	ErrDirNotFound = errors.New("location does not exist")
	ErrModuleLoad  = errors.New("unable to load module")
)

// Manifest holds the keys a command or event module may declare.
type Manifest struct {
	Run         string   `toml:"run"`
	Alias       []string `toml:"alias"`
	Description string   `toml:"description"`
	Usage       string   `toml:"usage"`
	Example     string   `toml:"example"`
	Group       string   `toml:"group"`
}

// Module is a single plugin file that has been read and decoded.
type Module struct {
	// Name is the file name without its extension.
	Name string
	// Path is the absolute path of the file.
	Path string
	// Manifest is the typed view of the file.
	Manifest Manifest
	// Table is the raw decoded document, used by services.
	Table map[string]any
}

// Exists reports whether dir is an existing directory.
func Exists(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil {
		return false
	}

	return info.IsDir()
}

// Load reads every module file in dir, sorted by file name.
func Load(dir string) ([]*Module, error) {
	if !Exists(dir) {
		return nil, fmt.Errorf("%w: '%s'", ErrDirNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading '%s': %v", ErrModuleLoad, dir, err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != Extension {
			continue
		}
		if strings.TrimSuffix(entry.Name(), Extension) == "" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	modules := make([]*Module, 0, len(names))
	for _, name := range names {
		m, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}

	return modules, nil
}

// LoadFile reads and decodes a single module file.
func LoadFile(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %v", ErrModuleLoad, path, err)
	}

	m := &Module{
		Name:  strings.TrimSuffix(filepath.Base(path), Extension),
		Path:  path,
		Table: make(map[string]any),
	}

	err = toml.Unmarshal(data, &m.Table)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %v", ErrModuleLoad, path, err)
	}

	err = toml.Unmarshal(data, &m.Manifest)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %v", ErrModuleLoad, path, err)
	}

	return m, nil
}
