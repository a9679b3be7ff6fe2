package schema

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"content-manager/feature/content/models"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultExtension is the extension of compiled schema modules.
const DefaultExtension = ".js"

// Schema is one collection discovered on disk.
type Schema struct {
	// Path is the logical content path derived from the file location.
	Path string
	// File is the path of the source file inside the reader's filesystem.
	File string
	// Def is the full definition evaluated from the file.
	Def *models.CollectionDef
}

// Reader walks a directory of compiled collection modules.
type Reader struct {
	fs        afero.Fs
	root      string
	extension string
	token     string
	registry  Registry
	logger    *zap.Logger
}

// Option customises a Reader.
type Option func(*Reader)

// WithExtension overrides the module extension.
func WithExtension(ext string) Option {
	return func(r *Reader) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext != "" {
			r.extension = ext
		}
	}
}

// WithToken overrides the declaration token that introduces the schema object.
func WithToken(token string) Option {
	return func(r *Reader) {
		if token != "" {
			r.token = token
		}
	}
}

// WithRegistry replaces the widget constructor table.
func WithRegistry(registry Registry) Option {
	return func(r *Reader) { r.registry = registry }
}

// NewReader creates a reader rooted at root on fs.
func NewReader(fs afero.Fs, root string, logger *zap.Logger, opts ...Option) *Reader {
	r := &Reader{
		fs:        fs,
		root:      root,
		extension: DefaultExtension,
		token:     DefaultToken,
		registry:  DefaultRegistry(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the directory the reader scans.
func (r *Reader) Root() string {
	return r.root
}

// Scan reads every module under the root and returns the schemas it could parse,
// ordered by file path. Files that fail are logged and skipped; only an unreadable
// root fails the scan.
func (r *Reader) Scan(ctx context.Context) ([]Schema, error) {
	info, err := r.fs.Stat(r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat collections directory %s: %w", r.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("collections path %s is not a directory", r.root)
	}

	var (
		schemas []Schema
		skipped error
	)

	walkErr := afero.Walk(r.fs, r.root, func(file string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			skipped = multierr.Append(skipped, fmt.Errorf("%s: %w", file, err))
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || filepath.Ext(file) != r.extension {
			return nil
		}

		s, err := r.ReadFile(file)
		if err != nil {
			skipped = multierr.Append(skipped, fmt.Errorf("%s: %w", file, err))
			r.logger.Warn("Skipping collection schema file", zap.String("file", file), zap.Error(err))
			return nil
		}
		schemas = append(schemas, *s)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk collections directory %s: %w", r.root, walkErr)
	}

	if skipped != nil {
		r.logger.Warn("Collection scan finished with skipped files",
			zap.Int("schemas", len(schemas)),
			zap.Int("skipped", len(multierr.Errors(skipped))),
			zap.Error(skipped),
		)
	} else {
		r.logger.Debug("Collection scan finished", zap.Int("schemas", len(schemas)))
	}

	return schemas, nil
}

// ReadFile extracts and evaluates the schema declared in one module.
func (r *Reader) ReadFile(file string) (*Schema, error) {
	data, err := afero.ReadFile(r.fs, file)
	if err != nil {
		return nil, err
	}

	literal, err := ExtractObjectLiteral(string(data), r.token)
	if err != nil {
		return nil, err
	}

	value, err := Evaluate(literal, r.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate schema: %w", err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: schema evaluated to %T", ErrNoSchema, value)
	}

	def, err := Definition(obj)
	if err != nil {
		return nil, err
	}

	contentPath, err := r.contentPath(file)
	if err != nil {
		return nil, err
	}
	def.Path = contentPath
	if def.Name == "" {
		def.Name = models.BaseName(contentPath)
	}

	return &Schema{Path: contentPath, File: file, Def: def}, nil
}

// contentPath maps a module file to its logical path: relative to the root,
// extension stripped, slash-rooted.
func (r *Reader) contentPath(file string) (string, error) {
	rel, err := filepath.Rel(r.root, file)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s against %s: %w", file, r.root, err)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), r.extension)
	return models.NormalizePath(rel), nil
}
