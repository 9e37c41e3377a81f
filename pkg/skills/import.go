package skills

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillforge/pkg/archive"
	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const stagingPrefix = ".import-"

// Upload is a single archive submitted for import
type Upload struct {
	// Filename is the uploaded file name; the skill is named after it minus ".zip".
	Filename string
	Data     []byte
}

// ImportFailure describes an upload that could not be imported
type ImportFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportResult lists the outcome of a multi-archive import
type ImportResult struct {
	Imported []string        `json:"imported"`
	Failed   []ImportFailure `json:"failed,omitempty"`
}

// Err aggregates the failures into a single error, or nil when all uploads succeeded
func (r *ImportResult) Err() error {
	var result *multierror.Error
	for _, f := range r.Failed {
		result = multierror.Append(result, errors.Errorf("%s: %s", f.Name, f.Error))
	}
	return result.ErrorOrNil()
}

// ExportSkill packs the skill directory into a zip archive wrapped in a
// directory named after the skill.
func (s *Store) ExportSkill(ctx context.Context, addr Address) ([]byte, error) {
	dir, err := s.existingSkillDir(addr)
	if err != nil {
		return nil, err
	}

	data, err := archive.Pack(dir, addr.Skill)
	if err != nil {
		return nil, ioFailure(err, "failed to create archive")
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"skill": addr.String(),
		"bytes": len(data),
	}).Debug("exported skill")
	return data, nil
}

// ImportArchives imports every upload independently into collection.
// A failing upload is recorded and does not stop the others.
func (s *Store) ImportArchives(ctx context.Context, collection string, uploads []Upload) *ImportResult {
	result := &ImportResult{Imported: []string{}}

	for _, upload := range uploads {
		name := SkillNameFromArchive(upload.Filename)
		err := telemetry.WithSpan(ctx, "skills.import", func(ctx context.Context) error {
			return s.ImportSkill(ctx, name, collection, upload.Data)
		}, telemetry.SkillAttributes(collection, name)...)

		if err != nil {
			result.Failed = append(result.Failed, ImportFailure{Name: name, Error: MessageOf(err)})
			continue
		}
		result.Imported = append(result.Imported, name)
	}

	if err := result.Err(); err != nil {
		logger.G(ctx).WithError(err).Warn("some archives failed to import")
	}
	return result
}

// ImportSkill unpacks an archive into a new skill directory. The archive
// is extracted into a staging directory first and only renamed into place
// once it contains a SKILL.md at its top level.
func (s *Store) ImportSkill(ctx context.Context, name, collection string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if collection != "" {
		if err := ValidateName(collection); err != nil {
			return err
		}
	}

	dest, err := s.resolver.SkillDir(Address{Collection: collection, Skill: name})
	if err != nil {
		return err
	}
	if _, err := os.Stat(dest); err == nil {
		return conflict("Skill already exists")
	}

	telemetry.SetAttributes(ctx, attribute.Int("archive.bytes", len(data)))

	staging := filepath.Join(s.Root(), stagingPrefix+uuid.New().String())
	defer os.RemoveAll(staging)

	if err := archive.Unpack(data, staging); err != nil {
		if errors.Is(err, archive.ErrUnsafePath) {
			return badRequest("archive contains unsafe paths")
		}
		return &Error{Kind: KindBadRequest, Message: fmt.Sprintf("invalid archive: %s", errors.Cause(err)), Err: err}
	}

	if !IsSkillDir(staging) {
		return badRequest("archive does not contain %s", SkillFileName)
	}

	if err := renameDir(staging, dest); err != nil {
		return err
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"skill":      name,
		"collection": collection,
	}).Info("imported skill")
	return nil
}

// SkillNameFromArchive derives a skill name from an uploaded file name
func SkillNameFromArchive(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	return strings.TrimSuffix(base, ".zip")
}
