package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadPaths parses every manifest named by paths. A directory is walked
// recursively for .yaml and .yml files. Manifests that parse are returned even
// when others fail; the failures are joined into the error. Two manifests for
// the same resource are an error.
func (p *Parser) LoadPaths(paths []string) ([]Manifest, error) {
	var (
		manifests []Manifest
		errs      []error
		seen      = make(map[string]string)
	)

	add := func(path string) {
		m, err := p.ParseFile(path)
		if err != nil {
			errs = append(errs, err)
			return
		}
		if prev, dup := seen[m.Key()]; dup {
			errs = append(errs, &ParseError{Path: path, Err: fmt.Errorf("%s is already declared in %s", m.Key(), prev)})
			return
		}
		seen[m.Key()] = path
		manifests = append(manifests, m)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read manifest path %s: %w", root, err))
			continue
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isYAMLFile(d.Name()) {
				add(path)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to walk %s: %w", root, err))
		}
	}

	return manifests, errors.Join(errs...)
}
