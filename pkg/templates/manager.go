package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/pkg/logger"
)

//go:embed defaults/*.tmpl
var defaultTemplates embed.FS

// Renderer interface for template rendering (for dependency injection)
type Renderer interface {
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager manages prompt templates
type Manager struct {
	templates *template.Template
	directory string
}

// GetDefaultFuncMap returns common template helper functions
func GetDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"float": func(val interface{}) float64 {
			switch v := val.(type) {
			case float64:
				return v
			case *float64:
				if v == nil {
					return 0
				}
				return *v
			case float32:
				return float64(v)
			case int:
				return float64(v)
			default:
				if dec, ok := val.(interface{ InexactFloat64() float64 }); ok {
					return dec.InexactFloat64()
				}
				return 0
			}
		},
		"add": func(a, b int) int {
			return a + b
		},
		"printf": fmt.Sprintf,
		"upper":  strings.ToUpper,
		"join":   strings.Join,
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return string(r[:n]) + "..."
		},
	}
}

// NewManager loads *.tmpl files from directory and one level of subdirectories.
// Embedded defaults are loaded first, files on disk override them by name.
func NewManager(templatesDir string) (*Manager, error) {
	tmpl, err := template.New("root").Funcs(GetDefaultFuncMap()).ParseFS(defaultTemplates, "defaults/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse default templates: %w", err)
	}

	if templatesDir != "" {
		for _, pattern := range []string{
			filepath.Join(templatesDir, "*.tmpl"),
			filepath.Join(templatesDir, "*", "*.tmpl"),
		} {
			matches, _ := filepath.Glob(pattern)
			if len(matches) == 0 {
				continue
			}
			if tmpl, err = tmpl.ParseFiles(matches...); err != nil {
				return nil, fmt.Errorf("failed to parse templates %s: %w", pattern, err)
			}
		}
	}

	logger.Info("templates loaded",
		zap.Int("count", len(tmpl.Templates())),
		zap.String("directory", templatesDir),
	)

	return &Manager{
		templates: tmpl,
		directory: templatesDir,
	}, nil
}

// NewManagerFS loads templates from an arbitrary filesystem, used by tests
func NewManagerFS(fsys fs.FS, patterns ...string) (*Manager, error) {
	tmpl, err := template.New("root").Funcs(GetDefaultFuncMap()).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Manager{templates: tmpl}, nil
}

// NewDefaultManager returns a manager with only the embedded templates
func NewDefaultManager() (*Manager, error) {
	return NewManagerFS(defaultTemplates, "defaults/*.tmpl")
}

// ExecuteTemplate renders template with data
func (m *Manager) ExecuteTemplate(name string, data interface{}) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// TemplateExists checks if template exists
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}

// GetDirectory returns templates directory path
func (m *Manager) GetDirectory() string {
	return m.directory
}
