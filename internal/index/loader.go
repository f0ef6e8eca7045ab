package index

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/abramin/abilens/internal/abi"
	"github.com/abramin/abilens/internal/cairo"
	"github.com/abramin/abilens/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// ParsedFile is the outcome of loading one ABI file. Exactly one of ABI and
// Err is set.
type ParsedFile struct {
	Path string // Relative to the project root, slash separated
	Name string
	Size int64
	ABI  *abi.Abi
	Err  error
}

// Loader discovers ABI files under a project directory and parses them.
type Loader struct {
	cfg        *config.Config
	projectDir string
	log        logrus.FieldLogger
}

// NewLoader creates a new ABI file loader.
func NewLoader(cfg *config.Config, projectDir string, log logrus.FieldLogger) *Loader {
	return &Loader{
		cfg:        cfg,
		projectDir: projectDir,
		log:        log,
	}
}

// Discover walks the project directory and returns the relative paths of
// included files, in lexical order.
func (l *Loader) Discover() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(l.projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.projectDir && l.cfg.IsExcludedDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(l.projectDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if l.cfg.IsIncludedFile(rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", l.projectDir, err)
	}
	return paths, nil
}

// LoadAll parses the given files concurrently. Files that are not ABIs at all
// are dropped; files that look like ABIs but fail to parse are returned with
// Err set. The result keeps the order of paths.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]*ParsedFile, error) {
	results := make([]*ParsedFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, l.cfg.Index.Workers))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pf, err := l.loadFile(path)
			if err != nil {
				return err
			}
			results[i] = pf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	parsed := make([]*ParsedFile, 0, len(results))
	for _, pf := range results {
		if pf != nil {
			parsed = append(parsed, pf)
		}
	}
	return parsed, nil
}

// loadFile reads and parses one file. It returns (nil, nil) for JSON that is
// not an ABI. Only I/O failures are returned as errors.
func (l *Loader) loadFile(path string) (*ParsedFile, error) {
	data, err := os.ReadFile(filepath.Join(l.projectDir, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !looksLikeABI(data) {
		l.log.WithField("file", path).Debug("skipping non-abi json")
		return nil, nil
	}

	pf := &ParsedFile{
		Path: path,
		Name: contractName(path),
		Size: int64(len(data)),
	}
	// Each file gets its own parser and type registry.
	pf.ABI, pf.Err = abi.ParseJSON(data,
		abi.WithLogger(l.log.WithField("file", path)),
		abi.WithTypeOptions(cairo.WithFeltAliases(l.cfg.Types.FeltAliases...)),
	)
	if pf.Err != nil {
		l.log.WithFields(logrus.Fields{"file": path, "error": pf.Err}).Warn("abi rejected")
	}
	return pf, nil
}

// looksLikeABI accepts an array of typed entries, an empty array, or an
// object carrying an "abi" field.
func looksLikeABI(data []byte) bool {
	if !gjson.ValidBytes(data) {
		// Broken JSON with an ABI-ish shape is still reported.
		return strings.Contains(string(data), `"type"`)
	}
	root := gjson.ParseBytes(data)
	switch {
	case root.IsObject():
		return root.Get("abi").Exists()
	case root.IsArray():
		first := root.Get("0")
		return !first.Exists() || first.Get("type").Exists()
	}
	return false
}

// contractName derives a display name from a file path, e.g.
// "target/dev/token_Token.contract_class.json" -> "token_Token".
func contractName(path string) string {
	name := filepath.Base(filepath.FromSlash(path))
	for _, suffix := range []string{".contract_class.json", ".sierra.json", ".abi.json", ".json"} {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok {
			return trimmed
		}
	}
	return name
}
