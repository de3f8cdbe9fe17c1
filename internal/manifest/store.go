package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bridgectl/pkg/logging"
)

const storeSubsystem = "ManifestStore"

// Store reads and writes manifests laid out as <root>/<type-dir>/<name>.yaml.
type Store struct {
	mu     sync.RWMutex
	root   string
	parser *Parser
}

// NewStore creates a store rooted at root.
func NewStore(root string) *Store {
	return &Store{
		root:   root,
		parser: NewParser(),
	}
}

// Root returns the manifests directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the file a manifest of typeName and name is stored in.
func (s *Store) Path(typeName, name string) string {
	return filepath.Join(s.root, DirForType(typeName), sanitizeFilename(name)+".yaml")
}

// Get loads the manifest for typeName and name. A missing file yields a *NotFoundError.
func (s *Store) Get(typeName, name string) (Manifest, error) {
	if typeName == "" || name == "" {
		return Manifest{}, fmt.Errorf("type and name cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.root, DirForType(typeName))
	base := sanitizeFilename(name)
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, base+ext)
		m, err := s.load(path, typeName)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return m, err
	}
	return Manifest{}, &NotFoundError{Type: typeName, Name: name}
}

// List returns every manifest of typeName, sorted by name. A file that fails
// to parse is logged and skipped so one bad file does not hide the others.
func (s *Store) List(typeName string) ([]Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dirPath := filepath.Join(s.root, DirForType(typeName))
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dirPath, err)
	}

	manifests := make([]Manifest, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		m, err := s.load(filepath.Join(dirPath, entry.Name()), typeName)
		if err != nil {
			logging.Error(storeSubsystem, err, "Failed to load manifest %s", entry.Name())
			continue
		}
		manifests = append(manifests, m)
	}

	sort.Slice(manifests, func(i, j int) bool { return manifests[i].Name < manifests[j].Name })
	logging.Debug(storeSubsystem, "Listed %d %s manifests", len(manifests), typeName)
	return manifests, nil
}

// ListAll returns the manifests of every type in typeNames.
func (s *Store) ListAll(typeNames []string) ([]Manifest, error) {
	var all []Manifest
	for _, typeName := range typeNames {
		manifests, err := s.List(typeName)
		if err != nil {
			return nil, err
		}
		all = append(all, manifests...)
	}
	return all, nil
}

// Save writes m to its file, creating the type directory when needed.
func (s *Store) Save(m Manifest) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid manifest: %w", err)
	}

	data, err := Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest %s: %w", m.Key(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(m.Type, m.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	logging.Info(storeSubsystem, "Saved %s to %s", m.Key(), path)
	return nil
}

// Delete removes the manifest file for typeName and name.
func (s *Store) Delete(typeName, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(typeName, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Type: typeName, Name: name}
		}
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}

	logging.Info(storeSubsystem, "Deleted %s/%s from %s", typeName, name, path)
	return nil
}

// load parses one file of the store. The manifest name must match the file name
// so a file event can be mapped back to the resource it describes.
func (s *Store) load(path, typeName string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}

	m, err := s.parser.Parse(data, path, typeName)
	if err != nil {
		return Manifest{}, err
	}
	if m.Type != typeName {
		return Manifest{}, &ParseError{Path: path, Err: fmt.Errorf("type %q does not match directory type %q", m.Type, typeName)}
	}
	if sanitizeFilename(m.Name) != getNameFromFileName(filepath.Base(path)) {
		return Manifest{}, &ParseError{Path: path, Err: fmt.Errorf("name %q does not match file name", m.Name)}
	}
	return m, nil
}

// sanitizeFilename ensures the filename is safe for filesystem operations
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_")
	sanitized := strings.Trim(replacer.Replace(name), "_")
	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}
