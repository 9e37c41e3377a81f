package skills

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ListFiles walks the skill directory and returns every file with its
// slash-separated relative path and size. A non-empty pattern keeps only
// paths matching the doublestar glob (e.g. "**/*.md").
func (s *Store) ListFiles(ctx context.Context, addr Address, pattern string) ([]File, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, badRequest("invalid pattern %q", pattern)
	}

	dir, err := s.existingSkillDir(addr)
	if err != nil {
		return nil, err
	}

	files := []File{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if pattern != "" {
			if ok, _ := doublestar.Match(pattern, rel); !ok {
				return nil
			}
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		files = append(files, File{Name: rel, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, ioFailure(err, "failed to list skill files")
	}

	return files, nil
}

// ReadFile returns the content of a file inside a skill
func (s *Store) ReadFile(ctx context.Context, addr Address, filePath string) ([]byte, error) {
	path, err := s.resolver.FilePath(addr, filePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, notFound("File not found")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, ioFailure(err, "failed to read file")
	}
	return content, nil
}

// WriteFile writes content to a file inside an existing skill, creating
// intermediate directories as needed.
func (s *Store) WriteFile(ctx context.Context, addr Address, filePath string, content []byte) error {
	path, err := s.resolver.FilePath(addr, filePath)
	if err != nil {
		return err
	}
	if _, err := s.existingSkillDir(addr); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ioFailure(err, "failed to create parent directories")
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return ioFailure(err, "failed to write file")
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"skill": addr.String(),
		"file":  filePath,
		"size":  len(content),
	}).Info("wrote skill file")
	return nil
}

// DeleteFile removes a file from a skill. SKILL.md can never be deleted
// this way, wherever it sits in the skill.
func (s *Store) DeleteFile(ctx context.Context, addr Address, filePath string) error {
	segments, err := SplitFilePath(filePath)
	if err != nil {
		return err
	}
	if segments[len(segments)-1] == SkillFileName {
		return badRequest("Cannot delete %s", SkillFileName)
	}

	path, err := s.resolver.FilePath(addr, filePath)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return notFound("File not found")
	}
	if err != nil {
		return ioFailure(err, "failed to stat file")
	}
	if info.IsDir() {
		return badRequest("%s is a directory", filePath)
	}

	if err := os.Remove(path); err != nil {
		return ioFailure(err, "failed to delete file")
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"skill": addr.String(),
		"file":  filePath,
	}).Info("deleted skill file")
	return nil
}

// SkillDir returns the directory of an existing skill
func (s *Store) SkillDir(addr Address) (string, error) {
	return s.existingSkillDir(addr)
}

func (s *Store) existingSkillDir(addr Address) (string, error) {
	dir, err := s.resolver.SkillDir(addr)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", notFound("Skill not found")
	}
	return dir, nil
}
