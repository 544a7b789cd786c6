package goal

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/numcal-lab/numcal/internal/core/period"
	"github.com/numcal-lab/numcal/internal/core/stats"
	"gopkg.in/yaml.v3"
)

// rawGoal is the on-disk YAML shape.
type rawGoal struct {
	Name      string  `yaml:"name"`
	Period    string  `yaml:"period"`
	Metric    string  `yaml:"metric"`
	Source    string  `yaml:"source"`
	Condition string  `yaml:"condition"`
	Value     float64 `yaml:"value"`
}

// FileSystemGoalRepository loads goals from *.yaml files in a directory.
// Each file contains exactly one goal at the top level. Goals are loaded
// once at startup and cached in memory — no hot reload.
type FileSystemGoalRepository struct {
	dir   string
	goals map[string]Goal // keyed by Name
}

// NewFileSystemGoalRepository creates a repository and eagerly loads all
// goals from dir. Returns an error if any goal file is malformed or invalid.
// A missing directory is valid and yields zero goals.
func NewFileSystemGoalRepository(dir string) (*FileSystemGoalRepository, error) {
	repo := &FileSystemGoalRepository{
		dir:   dir,
		goals: make(map[string]Goal),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemGoalRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("goal dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("goal path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading goal dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading goal file %s: %w", path, err)
		}

		var raw rawGoal
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing goal file %s: %w", path, err)
		}
		if raw.Name == "" {
			continue // skip empty / comment-only files
		}

		g, err := goalFromRaw(raw)
		if err != nil {
			return fmt.Errorf("goal %q: %w", raw.Name, err)
		}
		g.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))

		if _, exists := r.goals[g.Name]; exists {
			return fmt.Errorf("goal %q: duplicate goal name (check multiple YAML files)", g.Name)
		}
		r.goals[g.Name] = g
	}
	return nil
}

func goalFromRaw(raw rawGoal) (Goal, error) {
	gran := period.Granularity(raw.Period)
	if !period.ValidGranularity(gran) {
		return Goal{}, fmt.Errorf("unknown period %q", raw.Period)
	}

	value, err := sanitizeValue(raw.Value)
	if err != nil {
		return Goal{}, err
	}

	g := Goal{
		Name:        raw.Name,
		Granularity: gran,
		Target: Target{
			Metric:    stats.Field(raw.Metric),
			Source:    Source(raw.Source),
			Condition: Condition(raw.Condition),
			Value:     value,
		},
	}
	if err := g.Target.Validate(); err != nil {
		return Goal{}, err
	}
	return g, nil
}

// Get returns the goal with the given name, or an error if not found.
func (r *FileSystemGoalRepository) Get(name string) (*Goal, error) {
	g, ok := r.goals[name]
	if !ok {
		return nil, fmt.Errorf("goal %q not found", name)
	}
	return &g, nil
}

// Goals returns all loaded goals sorted by name.
func (r *FileSystemGoalRepository) Goals() []Goal {
	out := make([]Goal, 0, len(r.goals))
	for _, g := range r.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
