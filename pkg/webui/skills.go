package webui

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/jingkaihe/skillforge/pkg/skills"
	"github.com/jingkaihe/skillforge/pkg/version"
	"github.com/pkg/errors"
)

// CreateSkillRequest is the JSON body of POST /api/skills
type CreateSkillRequest struct {
	skills.Metadata
	Collection *string `json:"collection"`
}

// UpdateSkillRequest is the JSON body of PUT /api/skills/...
type UpdateSkillRequest struct {
	OldName       string  `json:"oldName"`
	OldCollection *string `json:"oldCollection"`
	skills.Metadata
	Collection *string `json:"collection"`
}

// MoveSkillRequest is the JSON body of POST /api/skills/move
type MoveSkillRequest struct {
	Name           string  `json:"name"`
	FromCollection *string `json:"fromCollection"`
	ToCollection   *string `json:"toCollection"`
}

// CollectionRequest is the JSON body of POST /api/collections
type CollectionRequest struct {
	Name string `json:"name"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return skills.ParseCollection(*s)
}

// skillAddress reads the skill-scoped address from the route: one segment
// is a root skill, two segments are collection and skill.
func skillAddress(r *http.Request) (skills.Address, error) {
	collection, err := pathVar(r, "collection")
	if err != nil {
		return skills.Address{}, err
	}
	skill, err := pathVar(r, "skill")
	if err != nil {
		return skills.Address{}, err
	}
	return skills.Address{Collection: skills.ParseCollection(collection), Skill: skill}, nil
}

// handleVersion handles GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, r, http.StatusOK, version.Get())
}

// handleListCollections handles GET /api/collections
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.store.ListCollections(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSONResponse(w, r, http.StatusOK, collections)
}

// handleCreateCollection handles POST /api/collections
func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	collection, err := s.store.CreateCollection(r.Context(), req.Name)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSONResponse(w, r, http.StatusCreated, collection)
}

// handleDeleteCollection handles DELETE /api/collections/{name}
func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name, err := pathVar(r, "name")
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	if err := s.store.DeleteCollection(r.Context(), name); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeSuccess(w, r)
}

// handleListSkills handles GET /api/skills
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListSkills(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSONResponse(w, r, http.StatusOK, list)
}

// handleCreateSkill handles POST /api/skills. JSON bodies create a skill
// from metadata; multipart bodies import one skill per .zip file part.
func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		s.handleImportSkills(w, r)
		return
	}

	var req CreateSkillRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	skill, err := s.store.CreateSkill(r.Context(), deref(req.Collection), req.Metadata)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSONResponse(w, r, http.StatusCreated, skill)
}

// handleImportSkills imports every .zip part of a multipart upload into
// the collection named by the "collection" query parameter.
func (s *Server) handleImportSkills(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize)

	reader, err := r.MultipartReader()
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "invalid multipart body", err)
		return
	}

	var uploads []skills.Upload
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.writeErrorResponse(w, r, http.StatusBadRequest, "failed to read upload", err)
			return
		}

		filename := part.FileName()
		if !strings.HasSuffix(filename, ".zip") {
			part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			s.writeErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read %s", filename), err)
			return
		}
		uploads = append(uploads, skills.Upload{Filename: filename, Data: data})
	}

	collection := skills.ParseCollection(r.URL.Query().Get("collection"))
	result := s.store.ImportArchives(r.Context(), collection, uploads)
	s.writeJSONResponse(w, r, http.StatusOK, result)
}

// handleDownloadSkill handles GET /api/skills/{skill} and /api/skills/{collection}/{skill}
func (s *Server) handleDownloadSkill(w http.ResponseWriter, r *http.Request) {
	addr, err := skillAddress(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	data, err := s.store.ExportSkill(r.Context(), addr)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", addr.Skill+".zip"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleUpdateSkill handles PUT /api/skills/{skill} and /api/skills/{collection}/{skill}.
// The old address comes from the body when oldName is set, otherwise from the route.
func (s *Server) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	var req UpdateSkillRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	update := skills.UpdateSkillRequest{
		OldName:       req.OldName,
		OldCollection: deref(req.OldCollection),
		Collection:    deref(req.Collection),
		Metadata:      req.Metadata,
	}

	if update.OldName == "" {
		addr, err := skillAddress(r)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		update.OldName = addr.Skill
		if req.OldCollection == nil {
			update.OldCollection = addr.Collection
		}
	}

	skill, err := s.store.UpdateSkill(r.Context(), update)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSONResponse(w, r, http.StatusOK, skill)
}

// handleDeleteSkill handles DELETE /api/skills/{skill} and /api/skills/{collection}/{skill}
func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	addr, err := skillAddress(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	if err := s.store.DeleteSkill(r.Context(), addr); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeSuccess(w, r)
}

// handleMoveSkill handles POST /api/skills/move
func (s *Server) handleMoveSkill(w http.ResponseWriter, r *http.Request) {
	var req MoveSkillRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if req.Name == "" {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "name is required", errors.New("missing skill name"))
		return
	}

	if err := s.store.MoveSkill(r.Context(), req.Name, deref(req.FromCollection), deref(req.ToCollection)); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeSuccess(w, r)
}
