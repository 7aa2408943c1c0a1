package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/directory/pkg/logger"
	"github.com/dmitrymomot/directory/pkg/sanitizer"
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

// File is the root of a seed document.
type File struct {
	Categories []Category `yaml:"categories"`
}

// Category is one node of the seed tree. Visible defaults to true.
type Category struct {
	Visible  *bool      `yaml:"visible"`
	Name     string     `yaml:"name"`
	Slug     string     `yaml:"slug"`
	Children []Category `yaml:"children"`
}

// Graph is the part of taxonomy.Graph the seeder needs.
type Graph interface {
	Insert(ctx context.Context, in taxonomy.InsertInput) (taxonomy.Node, error)
	List(ctx context.Context) ([]taxonomy.Node, error)
}

var _ Graph = (*taxonomy.Graph)(nil)

// Result counts what Apply did.
type Result struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
}

// Parse decodes a YAML seed document. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, errors.Join(ErrInvalidFile, err)
	}
	return f, nil
}

// ParseFile reads and decodes the seed document at path.
func ParseFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Join(ErrInvalidFile, err)
	}
	return Parse(bytes.NewReader(data))
}

// Option configures Apply.
type Option func(*applier)

// WithLogger sets the logger for created nodes.
func WithLogger(l *slog.Logger) Option {
	return func(a *applier) {
		if l != nil {
			a.logger = l
		}
	}
}

type applier struct {
	graph  Graph
	logger *slog.Logger
	known  map[key]taxonomy.Node
}

// key identifies a node by parent and case-folded name.
type key struct {
	parent uuid.UUID
	name   string
}

func keyOf(parentID *uuid.UUID, name string) key {
	k := key{name: strings.ToLower(name)}
	if parentID != nil {
		k.parent = *parentID
	}
	return k
}

type pending struct {
	parentID *uuid.UUID
	path     string
	def      Category
}

// Apply inserts the tree breadth first so every parent exists before its children.
// A category whose name already exists under the same parent is reused, so applying the
// same file twice creates nothing new.
// Apply stops at the first failure; nodes created before it stay.
func Apply(ctx context.Context, g Graph, f File, opts ...Option) (Result, error) {
	a := &applier{graph: g, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(a)
	}

	nodes, err := g.List(ctx)
	if err != nil {
		return Result{}, err
	}
	a.known = make(map[key]taxonomy.Node, len(nodes))
	for _, n := range nodes {
		a.known[keyOf(n.ParentID, n.Name)] = n
	}

	var res Result
	queue := make([]pending, 0, len(f.Categories))
	for i, c := range f.Categories {
		queue = append(queue, pending{def: c, path: fmt.Sprintf("categories[%d]", i)})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		node, created, err := a.ensure(ctx, item)
		if err != nil {
			return res, fmt.Errorf("%s: %w", item.path, err)
		}
		if created {
			res.Created++
		} else {
			res.Existing++
		}

		for i, child := range item.def.Children {
			queue = append(queue, pending{
				def:      child,
				parentID: &node.ID,
				path:     fmt.Sprintf("%s.children[%d]", item.path, i),
			})
		}
	}
	return res, nil
}

func (a *applier) ensure(ctx context.Context, item pending) (taxonomy.Node, bool, error) {
	name := sanitizer.Label(item.def.Name)
	if name == "" {
		return taxonomy.Node{}, false, ErrEmptyName
	}

	k := keyOf(item.parentID, name)
	if existing, ok := a.known[k]; ok {
		return existing, false, nil
	}

	visible := true
	if item.def.Visible != nil {
		visible = *item.def.Visible
	}
	node, err := a.graph.Insert(ctx, taxonomy.InsertInput{
		ParentID: item.parentID,
		Name:     name,
		Slug:     item.def.Slug,
		Visible:  visible,
	})
	if err != nil {
		return taxonomy.Node{}, false, err
	}
	a.known[k] = node
	a.logger.InfoContext(ctx, "category seeded",
		slog.String("path", item.path),
		slog.String("slug", node.Slug),
	)
	return node, true, nil
}
