package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/directory/pkg/profile"
	"github.com/dmitrymomot/directory/pkg/sanitizer"
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

type createProfileRequest struct {
	Kind         string `json:"kind"`
	BusinessName string `json:"business_name"`
	PersonalName string `json:"personal_name"`
	Slug         string `json:"slug"`
}

// updateProfileRequest applies its fields in order: names, kind, slug.
type updateProfileRequest struct {
	BusinessName   *string `json:"business_name"`
	PersonalName   *string `json:"personal_name"`
	Kind           *string `json:"kind"`
	Slug           *string `json:"slug"`
	RegenerateSlug bool    `json:"regenerate_slug"`
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	kind, err := profile.ParseKind(req.Kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := s.profiles.Create(r.Context(), profile.CreateInput{
		Kind:         kind,
		BusinessName: sanitizer.Label(req.BusinessName),
		PersonalName: sanitizer.Label(req.PersonalName),
		Slug:         req.Slug,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.profiles.Get(r.Context(), profileID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getProfileBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetBySlug(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "ref")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req updateProfileRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	switch {
	case req.Slug != nil && req.RegenerateSlug:
		s.fail(w, r, fmt.Errorf("%w: slug and regenerate_slug are exclusive", ErrBadRequest))
		return
	case req.BusinessName == nil && req.PersonalName == nil && req.Kind == nil && req.Slug == nil && !req.RegenerateSlug:
		s.fail(w, r, fmt.Errorf("%w: nothing to update", ErrBadRequest))
		return
	}

	var kind profile.Kind
	if req.Kind != nil {
		if kind, err = profile.ParseKind(*req.Kind); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	ctx := r.Context()
	p, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if req.BusinessName != nil || req.PersonalName != nil {
		in := profile.LabelInput{BusinessName: p.BusinessName, PersonalName: p.PersonalName}
		if req.BusinessName != nil {
			in.BusinessName = sanitizer.Label(*req.BusinessName)
		}
		if req.PersonalName != nil {
			in.PersonalName = sanitizer.Label(*req.PersonalName)
		}
		if p, err = s.profiles.UpdateLabel(ctx, profileID, in); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if req.Kind != nil && kind != p.Kind {
		if p, err = s.profiles.ChangeKind(ctx, profileID, kind); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	switch {
	case req.Slug != nil:
		p, err = s.profiles.SetSlug(ctx, profileID, *req.Slug)
	case req.RegenerateSlug:
		p, err = s.profiles.RegenerateSlug(ctx, profileID)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) checkSlug(w http.ResponseWriter, r *http.Request) {
	value := strings.TrimSpace(r.URL.Query().Get("slug"))
	if value == "" {
		s.fail(w, r, fmt.Errorf("%w: slug query parameter is required", ErrBadRequest))
		return
	}
	a, err := s.profiles.CheckSlug(r.Context(), value)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) profileCategories(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctx := r.Context()
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		s.fail(w, r, err)
		return
	}

	ids, err := s.links.CategoriesOf(ctx, profileID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	nodes := make([]taxonomy.Node, 0, len(ids))
	for _, categoryID := range ids {
		n, err := s.categories.Get(ctx, categoryID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		nodes = append(nodes, n)
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) linkCategory(w http.ResponseWriter, r *http.Request) {
	s.changeLink(w, r, s.links.Link)
}

func (s *Server) unlinkCategory(w http.ResponseWriter, r *http.Request) {
	s.changeLink(w, r, s.links.Unlink)
}

func (s *Server) changeLink(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, profileID, categoryID uuid.UUID) error) {
	profileID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	categoryID, err := pathID(r, "categoryID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := apply(r.Context(), profileID, categoryID); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
