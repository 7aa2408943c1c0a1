package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/directory/pkg/sanitizer"
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

// TreeCacheKey is the cache key of the full category tree.
const TreeCacheKey = "categories:tree"

type createCategoryRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
	Visible  *bool      `json:"visible"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
}

// updateCategoryRequest applies its fields in order: name, slug, parent, visibility.
type updateCategoryRequest struct {
	Name           *string    `json:"name"`
	Slug           *string    `json:"slug"`
	Visible        *bool      `json:"visible"`
	ParentID       optionalID `json:"parent_id"`
	RegenerateSlug bool       `json:"regenerate_slug"`
}

// optionalID tells an absent field from an explicit null.
type optionalID struct {
	Value *uuid.UUID
	Set   bool
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v uuid.UUID
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (s *Server) categoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.tree.Get(r.Context(), TreeCacheKey, s.categories.Tree)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	switch r.URL.Query().Get("visible") {
	case "":
	case "true":
		tree = visibleOnly(tree)
	default:
		s.fail(w, r, fmt.Errorf("%w: visible must be true when set", ErrBadRequest))
		return
	}
	if tree == nil {
		tree = []*taxonomy.TreeNode{}
	}
	writeJSON(w, http.StatusOK, tree)
}

// visibleOnly copies the tree without hidden nodes. A hidden node hides its subtree.
func visibleOnly(nodes []*taxonomy.TreeNode) []*taxonomy.TreeNode {
	type frame struct {
		src []*taxonomy.TreeNode
		dst *[]*taxonomy.TreeNode
	}

	out := []*taxonomy.TreeNode{}
	stack := []frame{{src: nodes, dst: &out}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, n := range f.src {
			if !n.Visible {
				continue
			}
			c := &taxonomy.TreeNode{Node: n.Node, Children: []*taxonomy.TreeNode{}}
			*f.dst = append(*f.dst, c)
			stack = append(stack, frame{src: n.Children, dst: &c.Children})
		}
	}
	return out
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	nodeID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	node, err := s.categories.Get(r.Context(), nodeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) getCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	node, err := s.categories.GetBySlug(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) categoryPath(w http.ResponseWriter, r *http.Request) {
	nodeID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	path, err := s.categories.Path(r.Context(), nodeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, path)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}
	node, err := s.categories.Insert(r.Context(), taxonomy.InsertInput{
		ParentID: req.ParentID,
		Name:     sanitizer.Label(req.Name),
		Slug:     req.Slug,
		Visible:  visible,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.invalidateTree(r)
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	nodeID, err := pathID(r, "ref")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req updateCategoryRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	switch {
	case req.Slug != nil && req.RegenerateSlug:
		s.fail(w, r, fmt.Errorf("%w: slug and regenerate_slug are exclusive", ErrBadRequest))
		return
	case req.Name == nil && req.Slug == nil && !req.RegenerateSlug && !req.ParentID.Set && req.Visible == nil:
		s.fail(w, r, fmt.Errorf("%w: nothing to update", ErrBadRequest))
		return
	}

	ctx := r.Context()
	defer s.invalidateTree(r)

	steps := []func() error{
		func() error {
			if req.Name == nil {
				return nil
			}
			_, err := s.categories.Rename(ctx, nodeID, sanitizer.Label(*req.Name))
			return err
		},
		func() error {
			switch {
			case req.Slug != nil:
				_, err := s.categories.SetSlug(ctx, nodeID, *req.Slug)
				return err
			case req.RegenerateSlug:
				_, err := s.categories.RegenerateSlug(ctx, nodeID)
				return err
			}
			return nil
		},
		func() error {
			if !req.ParentID.Set {
				return nil
			}
			return s.categories.Reparent(ctx, nodeID, req.ParentID.Value)
		},
		func() error {
			if req.Visible == nil {
				return nil
			}
			_, err := s.categories.SetVisibility(ctx, nodeID, *req.Visible)
			return err
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	node, err := s.categories.Get(ctx, nodeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	nodeID, err := pathID(r, "ref")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.categories.Delete(r.Context(), nodeID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.invalidateTree(r)
	w.WriteHeader(http.StatusNoContent)
}

// invalidateTree drops the cached tree. A failure is logged; the entry still
// expires with its TTL.
func (s *Server) invalidateTree(r *http.Request) {
	if err := s.tree.Invalidate(context.WithoutCancel(r.Context()), TreeCacheKey); err != nil {
		s.logger.WarnContext(r.Context(), "tree cache invalidation failed", slog.Any("error", err))
	}
}
