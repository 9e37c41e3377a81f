package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Store manages skills and collections below a root directory. It keeps no
// state besides the root: every call re-reads the filesystem, and writes
// assume a single writer.
type Store struct {
	resolver *Resolver
}

// UpdateSkillRequest rewrites a skill's metadata and optionally moves it.
// Changing Name or Collection renames the skill directory.
type UpdateSkillRequest struct {
	OldName       string
	OldCollection string
	Collection    string
	Metadata
}

// NewStore creates a store rooted at dir, creating dir if needed
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("skills directory cannot be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve skills directory")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create skills directory")
	}

	return &Store{resolver: NewResolver(abs)}, nil
}

// Resolver returns the path resolver used by the store
func (s *Store) Resolver() *Resolver {
	return s.resolver
}

// Root returns the store root directory
func (s *Store) Root() string {
	return s.resolver.Root()
}

// ListSkills returns root-level skills followed by the skills of each collection
func (s *Store) ListSkills(ctx context.Context) ([]Skill, error) {
	skills, err := s.scanSkills(ctx, s.Root(), "")
	if err != nil {
		return nil, err
	}

	collections, err := s.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	for _, c := range collections {
		found, err := s.scanSkills(ctx, filepath.Join(s.Root(), c.FolderName), c.Name)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("collection", c.Name).Warn("skipping unreadable collection")
			continue
		}
		skills = append(skills, found...)
	}

	return skills, nil
}

func (s *Store) scanSkills(ctx context.Context, dir, collection string) ([]Skill, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioFailure(err, "failed to read directory")
	}

	skills := []Skill{}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if collection == "" && IsCollectionFolder(entry.Name()) {
			continue
		}

		skillDir := filepath.Join(dir, entry.Name())
		info, err := os.Stat(skillDir)
		if err != nil || !info.IsDir() || !IsSkillDir(skillDir) {
			continue
		}

		content, err := os.ReadFile(filepath.Join(skillDir, SkillFileName))
		if err != nil {
			logger.G(ctx).WithError(err).WithField("dir", skillDir).Warn("failed to read SKILL.md")
			continue
		}
		if !HasFrontmatter(string(content)) {
			logger.G(ctx).WithField("dir", skillDir).Debug("SKILL.md has no frontmatter block")
		}

		skills = append(skills, Skill{
			Metadata:   Parse(string(content)),
			Collection: collectionRef(collection),
			FolderName: entry.Name(),
		})
	}

	return skills, nil
}

// CreateSkill writes a new skill into collection ("" for the root)
func (s *Store) CreateSkill(ctx context.Context, collection string, m Metadata) (*Skill, error) {
	if err := ValidateName(m.Name); err != nil {
		return nil, err
	}
	if collection != "" {
		if err := ValidateName(collection); err != nil {
			return nil, err
		}
	}

	addr := Address{Collection: collection, Skill: m.Name}
	dir, err := s.resolver.SkillDir(addr)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(dir); err == nil {
		return nil, conflict("Skill already exists")
	} else if !os.IsNotExist(err) {
		return nil, ioFailure(err, "failed to stat skill directory")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ioFailure(err, "failed to create skill directory")
	}
	if err := writeSkillFile(dir, m); err != nil {
		return nil, err
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"skill":      m.Name,
		"collection": collection,
	}).Info("created skill")

	return &Skill{Metadata: m, Collection: collectionRef(collection), FolderName: m.Name}, nil
}

// UpdateSkill rewrites SKILL.md at the old address and then moves the
// directory if the name or collection changed. A taken destination is
// refused before anything is written. The two steps are not atomic: if
// the move still fails the new metadata stays at the old address.
func (s *Store) UpdateSkill(ctx context.Context, req UpdateSkillRequest) (*Skill, error) {
	if err := ValidateName(req.Name); err != nil {
		return nil, err
	}
	if req.Collection != "" {
		if err := ValidateName(req.Collection); err != nil {
			return nil, err
		}
	}

	oldAddr := Address{Collection: req.OldCollection, Skill: req.OldName}
	telemetry.SetAttributes(ctx, telemetry.SkillAttributes(oldAddr.Collection, oldAddr.Skill)...)
	newAddr := Address{Collection: req.Collection, Skill: req.Name}

	oldDir, err := s.resolver.SkillDir(oldAddr)
	if err != nil {
		return nil, err
	}
	newDir, err := s.resolver.SkillDir(newAddr)
	if err != nil {
		return nil, err
	}

	if !IsSkillDir(oldDir) {
		return nil, notFound("Skill not found")
	}
	if oldDir != newDir {
		if _, err := os.Stat(newDir); err == nil {
			return nil, conflict("Skill already exists")
		}
	}

	if err := writeSkillFile(oldDir, req.Metadata); err != nil {
		return nil, err
	}

	if oldDir != newDir {
		if err := renameDir(oldDir, newDir); err != nil {
			return nil, err
		}
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"from": oldAddr.String(),
		"to":   newAddr.String(),
	}).Info("updated skill")

	return &Skill{Metadata: req.Metadata, Collection: collectionRef(req.Collection), FolderName: req.Name}, nil
}

// DeleteSkill removes the skill directory and everything in it. Directories
// without a SKILL.md are never removed.
func (s *Store) DeleteSkill(ctx context.Context, addr Address) error {
	telemetry.SetAttributes(ctx, telemetry.SkillAttributes(addr.Collection, addr.Skill)...)

	dir, err := s.resolver.SkillDir(addr)
	if err != nil {
		return err
	}

	if !IsSkillDir(dir) {
		return notFound("Skill not found")
	}

	if err := os.RemoveAll(dir); err != nil {
		return ioFailure(err, "failed to remove skill directory")
	}

	logger.G(ctx).WithField("skill", addr.String()).Info("deleted skill")
	return nil
}

// MoveSkill moves a skill between collections, creating the destination
// collection when needed. An occupied destination is not checked
// beforehand; renaming onto an existing non-empty directory fails.
func (s *Store) MoveSkill(ctx context.Context, name, from, to string) error {
	telemetry.SetAttributes(ctx, telemetry.SkillAttributes(from, name)...)

	if to != "" {
		if err := ValidateName(to); err != nil {
			return err
		}
	}

	fromDir, err := s.resolver.SkillDir(Address{Collection: from, Skill: name})
	if err != nil {
		return err
	}
	toDir, err := s.resolver.SkillDir(Address{Collection: to, Skill: name})
	if err != nil {
		return err
	}

	if !IsSkillDir(fromDir) {
		return notFound("Skill not found")
	}

	if err := renameDir(fromDir, toDir); err != nil {
		return err
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"skill": name,
		"from":  from,
		"to":    to,
	}).Info("moved skill")
	return nil
}

func writeSkillFile(dir string, m Metadata) error {
	err := os.WriteFile(filepath.Join(dir, SkillFileName), []byte(Serialize(m)), 0o644)
	return ioFailure(err, "failed to write SKILL.md")
}

// renameDir moves src to dst, creating dst's parent (a collection
// directory) when it does not exist yet.
func renameDir(src, dst string) error {
	if src == dst {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ioFailure(err, "failed to create destination directory")
	}
	return ioFailure(os.Rename(src, dst), "failed to move skill directory")
}
