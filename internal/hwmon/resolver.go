package hwmon

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/logger"
)

// DefaultRoot is where the host's hwmon class directory is expected when
// running inside the container.
const DefaultRoot = "/hostsys/class/hwmon"

// descriptorFile is the name-bearing file each chip directory exposes.
const descriptorFile = "name"

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Resolver resolves chip aliases against one directory scan. Each
// collection or render run owns its own Resolver so stale mappings can
// never leak across runs; the cache only avoids rescanning the chip
// directory for every sensor within a run.
//
// Matching rule: a chip alias matches a directory when the trimmed
// contents of its descriptor file are exactly equal to the alias,
// case-sensitively. Two directories advertising the same descriptor
// value make that alias ambiguous.
type Resolver struct {
	root    string
	chips   map[string][]string
	scanned bool
}

// NewResolver creates a Resolver over the given chip directory root.
func NewResolver(root string) *Resolver {
	if root == "" {
		root = DefaultRoot
	}

	return &Resolver{root: root}
}

// Resolve substitutes every {chip-alias} placeholder in the template.
// A placeholder re-anchors the path at the resolved chip directory:
// "/hostsys/{k10temp}/temp1_input" becomes "<k10temp dir>/temp1_input"
// no matter where the chip directory actually lives.
func (r *Resolver) Resolve(template string) (ResolvedPath, error) {
	errFactory := errors.New()

	resolved := template
	for {
		m := placeholderPattern.FindStringSubmatchIndex(resolved)
		if m == nil {
			break
		}

		alias := resolved[m[2]:m[3]]
		dir, err := r.lookup(alias)
		if err != nil {
			return ResolvedPath{}, err
		}
		tail := strings.TrimLeft(resolved[m[1]:], "/")
		resolved = filepath.Join(dir, tail)
	}

	if strings.ContainsAny(resolved, "{}") {
		return ResolvedPath{}, errFactory.WithData(ErrBadTemplate, template)
	}

	return ResolvedPath{
		Path:       filepath.Clean(resolved),
		ResolvedAt: time.Now(),
	}, nil
}

func (r *Resolver) lookup(alias string) (string, error) {
	errFactory := errors.New()

	if !r.scanned {
		if err := r.scan(); err != nil {
			return "", err
		}
	}

	dirs := r.chips[alias]
	switch len(dirs) {
	case 0:
		return "", errFactory.WithData(ErrUnresolvedPlaceholder, alias)
	case 1:
		return dirs[0], nil
	default:
		return "", errFactory.WithData(ErrAmbiguousChip, struct {
			Alias string
			Dirs  []string
		}{Alias: alias, Dirs: dirs})
	}
}

func (r *Resolver) scan() error {
	errFactory := errors.New()

	entries, err := os.ReadDir(r.root)
	if err != nil {
		return errFactory.Wrap(ErrScanFailed, err).
			WithMessage("Failed to enumerate chip directory " + r.root)
	}

	r.chips = make(map[string][]string)
	for _, entry := range entries {
		if !entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		dir := filepath.Join(r.root, entry.Name())
		data, err := os.ReadFile(filepath.Join(dir, descriptorFile))
		if err != nil {
			// Chip directories without a readable descriptor are skipped,
			// not fatal: other chips remain resolvable.
			continue
		}
		chip := strings.TrimSpace(string(data))
		if chip == "" {
			continue
		}
		r.chips[chip] = append(r.chips[chip], dir)
	}

	logger.Debug().Int("chips", len(r.chips)).Str("root", r.root).Msg("Scanned chip directory")
	r.scanned = true

	return nil
}
