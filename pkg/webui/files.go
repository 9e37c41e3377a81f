package webui

import (
	"net/http"

	"github.com/jingkaihe/skillforge/pkg/render"
	"github.com/jingkaihe/skillforge/pkg/skills"
)

// FileContent is the JSON body for reading and writing skill files
type FileContent struct {
	Content *string `json:"content"`
}

// fileAddress reads the file-scoped address: collection-or-sentinel, skill
// and the remaining file path.
func fileAddress(r *http.Request) (skills.Address, string, error) {
	addr, err := skillAddress(r)
	if err != nil {
		return addr, "", err
	}
	filePath, err := pathVar(r, "path")
	if err != nil {
		return addr, "", err
	}
	return addr, filePath, nil
}

// handleListFiles handles GET /api/skills/files/{collection}/{skill}
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	addr, err := skillAddress(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	files, err := s.store.ListFiles(r.Context(), addr, r.URL.Query().Get("pattern"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSONResponse(w, r, http.StatusOK, map[string]any{"files": files})
}

// handleReadFile handles GET /api/skills/file/{collection}/{skill}/{path}
func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	addr, filePath, err := fileAddress(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	content, err := s.store.ReadFile(r.Context(), addr, filePath)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	text := string(content)
	s.writeJSONResponse(w, r, http.StatusOK, FileContent{Content: &text})
}

// handleWriteFile handles PUT /api/skills/file/{collection}/{skill}/{path}
func (s *Server) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	addr, filePath, err := fileAddress(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	var req FileContent
	if err := decodeJSON(r, &req); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if req.Content == nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "content is required", nil)
		return
	}

	if err := s.store.WriteFile(r.Context(), addr, filePath, []byte(*req.Content)); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeSuccess(w, r)
}

// handleDeleteFile handles DELETE /api/skills/file/{collection}/{skill}/{path}
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	addr, filePath, err := fileAddress(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	if err := s.store.DeleteFile(r.Context(), addr, filePath); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeSuccess(w, r)
}

// handlePreviewFile handles GET /api/skills/preview/{collection}/{skill}/{path}
func (s *Server) handlePreviewFile(w http.ResponseWriter, r *http.Request) {
	addr, filePath, err := fileAddress(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	content, err := s.store.ReadFile(r.Context(), addr, filePath)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	doc, err := render.Markdown(content)
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusInternalServerError, "failed to render preview", err)
		return
	}
	if doc.Frontmatter == nil && skills.HasFrontmatter(string(content)) {
		doc.Frontmatter = frontmatterFields(skills.Parse(string(content)))
	}
	s.writeJSONResponse(w, r, http.StatusOK, doc)
}

// frontmatterFields is the preview form of a block that only the lenient
// SKILL.md reader accepts
func frontmatterFields(m skills.Metadata) map[string]any {
	fields := map[string]any{
		"name":        m.Name,
		"description": m.Description,
	}
	if m.Dependencies != "" {
		fields["dependencies"] = m.Dependencies
	}
	return fields
}
