package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"bridgectl/internal/template"
)

// Parser renders and decodes manifest files.
type Parser struct {
	engine *template.Engine
	hostFn func() (map[string]any, error)
}

// NewParser creates a parser whose templates see the host context.
func NewParser() *Parser {
	return &Parser{
		engine: template.New(),
		hostFn: template.HostContext,
	}
}

// Parse renders data as a template and decodes it strictly. source names the
// file in errors; its base name is exposed to the template as .Name and used
// as the resource name when the manifest omits one. defaultType applies when
// the manifest has no type field.
func (p *Parser) Parse(data []byte, source, defaultType string) (Manifest, error) {
	fileName := getNameFromFileName(filepath.Base(source))

	if template.IsTemplate(string(data)) {
		host, err := p.hostFn()
		if err != nil {
			return Manifest{}, &ParseError{Path: source, Err: fmt.Errorf("failed to build template context: %w", err)}
		}
		rendered, err := p.engine.Render(source, string(data), template.MergeContexts(host, map[string]any{"Name": fileName}))
		if err != nil {
			return Manifest{}, &ParseError{Path: source, Err: err}
		}
		data = rendered
	}

	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return Manifest{}, &ParseError{Path: source, Err: err}
	}

	if m.Name == "" {
		m.Name = fileName
	}
	if m.Type == "" {
		m.Type = defaultType
	}
	m.Source = source

	if err := m.Validate(); err != nil {
		return Manifest{}, &ParseError{Path: source, Err: err}
	}
	return m, nil
}

// ParseFile reads and parses one manifest file. The type defaults to the one
// mapped to the file's parent directory.
func (p *Parser) ParseFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	defaultType, _ := TypeForDir(filepath.Base(filepath.Dir(path)))
	return p.Parse(data, path, defaultType)
}

// Marshal encodes m as YAML.
func Marshal(m Manifest) ([]byte, error) {
	return yaml.Marshal(m)
}

func isYAMLFile(filename string) bool {
	ext := filepath.Ext(filename)
	return ext == ".yaml" || ext == ".yml"
}

func getNameFromFileName(filename string) string {
	ext := filepath.Ext(filename)
	return filename[:len(filename)-len(ext)]
}
