package ephemeris

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/pelletier/go-toml/v2"
)

//go:embed data
var embedded embed.FS

// ManifestFile is the name of the manifest inside a dataset directory.
const ManifestFile = "manifest.toml"

// Manifest maps each dataset role to a file and a model.
type Manifest struct {
	Solar  Entry `toml:"solar"`
	LunarR Entry `toml:"lunar_r"`
	LunarV Entry `toml:"lunar_v"`
	LunarU Entry `toml:"lunar_u"`
}

// Entry is one dataset in the manifest.
type Entry struct {
	File  string `toml:"file"`
	Model string `toml:"model"`
}

// Set holds the four datasets the Sun and Moon evaluators need.
type Set struct {
	Solar  *Dataset
	LunarR *Dataset
	LunarV *Dataset
	LunarU *Dataset
}

// Validate checks that each dataset is present and of the right theory.
func (s *Set) Validate() error {
	var errs []error
	if err := s.Solar.expect(ModelVSOP87); err != nil {
		errs = append(errs, fmt.Errorf("solar: %w", err))
	}
	if err := s.LunarR.expect(ModelELP); err != nil {
		errs = append(errs, fmt.Errorf("lunar_r: %w", err))
	}
	if err := s.LunarV.expect(ModelELP); err != nil {
		errs = append(errs, fmt.Errorf("lunar_v: %w", err))
	}
	if err := s.LunarU.expect(ModelELP); err != nil {
		errs = append(errs, fmt.Errorf("lunar_u: %w", err))
	}
	return errors.Join(errs...)
}

// LoadEmbedded loads the datasets compiled into the binary.
func LoadEmbedded() (*Set, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadFrom loads from dir, or the embedded datasets when dir is empty.
func LoadFrom(dir string) (*Set, error) {
	if dir == "" {
		return LoadEmbedded()
	}
	return LoadDir(dir)
}

// LoadDir loads datasets from a directory on disk containing a
// manifest.toml.
func LoadDir(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("ephemeris dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ephemeris dir %s: not a directory", dir)
	}
	return Load(os.DirFS(dir))
}

// Load reads manifest.toml from the root of fsys and parses every dataset
// it lists.
func Load(fsys fs.FS) (*Set, error) {
	raw, err := fs.ReadFile(fsys, ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	set := &Set{}
	roles := []struct {
		name  string
		entry Entry
		dst   **Dataset
	}{
		{"solar", m.Solar, &set.Solar},
		{"lunar_r", m.LunarR, &set.LunarR},
		{"lunar_v", m.LunarV, &set.LunarV},
		{"lunar_u", m.LunarU, &set.LunarU},
	}

	for _, role := range roles {
		if role.entry.File == "" {
			return nil, fmt.Errorf("manifest: %s has no file", role.name)
		}
		ds, err := loadEntry(fsys, role.entry)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", role.name, err)
		}
		*role.dst = ds
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func loadEntry(fsys fs.FS, e Entry) (*Dataset, error) {
	model, err := ParseModel(e.Model)
	if err != nil {
		return nil, err
	}

	f, err := fsys.Open(path.Clean(e.File))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Parse(f, model)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.File, err)
	}
	ds.Name = e.File
	return ds, nil
}
