// Package persistence reads and writes registry tables in interchangeable formats.
//
// Every format keeps the column set and row order of a table and round-trips
// list-valued and nested cells. Formats are selected by name or by file suffix.
package persistence

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/protflow/pkg/domain"
)

// Format stores a table at a path.
type Format interface {
	// Name is the configuration name of the format.
	Name() string
	// Extension is the file suffix written by the format, including the dot.
	Extension() string
	Save(path string, t *domain.Table) error
	Load(path string) (*domain.Table, error)
}

// Codec converts a table to and from bytes. Byte oriented formats are codecs.
type Codec interface {
	Marshal(t *domain.Table) ([]byte, error)
	Unmarshal(data []byte) (*domain.Table, error)
}

// Default is the format used when none is configured.
const Default = "json"

var (
	formats    = map[string]Format{}
	extensions = map[string]Format{}
	// legacy format names without an implementation
	unsupported = map[string]string{
		"pickle":  "python object serialization is not portable",
		"feather": "use columnar (.colpack) instead",
		"parquet": "use columnar (.colpack) instead",
	}
)

func register(f Format, extraExt ...string) {
	formats[f.Name()] = f
	extensions[f.Extension()] = f
	for _, e := range extraExt {
		extensions[e] = f
	}
}

func init() {
	register(codecFormat{name: "json", ext: ".json", codec: JSON{}})
	register(codecFormat{name: "yaml", ext: ".yaml", codec: YAML{}}, ".yml")
	register(codecFormat{name: "csv", ext: ".csv", codec: CSV{}})
	register(codecFormat{name: "msgpack", ext: ".msgpack", codec: Msgpack{}}, ".mpk")
	register(codecFormat{name: "columnar", ext: ".colpack", codec: Columnar{}})
	register(SQLite{}, ".sqlite", ".sqlite3")
}

// Lookup returns the format registered under name.
func Lookup(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = Default
	}
	if f, ok := formats[name]; ok {
		return f, nil
	}
	if reason, ok := unsupported[name]; ok {
		return nil, fmt.Errorf("%w: %q (%s)", domain.ErrUnknownFormat, name, reason)
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", domain.ErrUnknownFormat, name, strings.Join(Names(), ", "))
}

// ForPath selects a format by the suffix of path.
func ForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	if reason, ok := unsupported[strings.TrimPrefix(ext, ".")]; ok {
		return nil, fmt.Errorf("%w: %q (%s)", domain.ErrUnknownFormat, path, reason)
	}
	return nil, fmt.Errorf("%w: cannot infer format of %q", domain.ErrUnknownFormat, path)
}

// Names lists the registered format names.
func Names() []string {
	out := make([]string, 0, len(formats))
	for n := range formats {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Save writes t to path. An empty format name selects the format by suffix.
func Save(path, format string, t *domain.Table) error {
	f, err := resolve(path, format)
	if err != nil {
		return err
	}
	if err := f.Save(path, t); err != nil {
		return fmt.Errorf("failed to save %s table to %s: %w", f.Name(), path, err)
	}
	return nil
}

// Load reads a table from path, selecting the format by suffix.
func Load(path string) (*domain.Table, error) {
	f, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	t, err := f.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s table from %s: %w", f.Name(), path, err)
	}
	return t, nil
}

func resolve(path, format string) (Format, error) {
	if format != "" {
		return Lookup(format)
	}
	return ForPath(path)
}

// codecFormat stores the bytes of a codec in a single file.
type codecFormat struct {
	name  string
	ext   string
	codec Codec
}

func (f codecFormat) Name() string      { return f.name }
func (f codecFormat) Extension() string { return f.ext }

func (f codecFormat) Save(path string, t *domain.Table) error {
	data, err := f.codec.Marshal(t)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

func (f codecFormat) Load(path string) (*domain.Table, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return f.codec.Unmarshal(data)
}
