package skills

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// reservedNames collide with literal route segments under /api/skills/
var reservedNames = map[string]bool{
	"file":    true,
	"files":   true,
	"move":    true,
	"preview": true,
}

// Address is the logical location of a skill. An empty Collection means
// the skill lives at the store root.
type Address struct {
	Collection string
	Skill      string
}

// ParseCollection converts a route segment into a collection name,
// mapping the "_" sentinel to the root.
func ParseCollection(segment string) string {
	if segment == NoCollection {
		return ""
	}
	return segment
}

func (a Address) String() string {
	if a.Collection == "" {
		return a.Skill
	}
	return a.Collection + "/" + a.Skill
}

// Resolver maps logical addresses onto paths below a root directory
type Resolver struct {
	root string
}

// NewResolver creates a resolver rooted at dir
func NewResolver(root string) *Resolver {
	return &Resolver{root: filepath.Clean(root)}
}

// Root returns the store root directory
func (r *Resolver) Root() string {
	return r.root
}

// CollectionDir returns the directory of the named collection
func (r *Resolver) CollectionDir(name string) (string, error) {
	if err := validateSegment("collection name", name); err != nil {
		return "", err
	}
	return filepath.Join(r.root, CollectionFolder(name)), nil
}

// SkillDir returns the directory of the skill at addr
func (r *Resolver) SkillDir(addr Address) (string, error) {
	if err := validateSegment("skill name", addr.Skill); err != nil {
		return "", err
	}
	if addr.Collection == "" {
		// a root skill must not alias a collection directory
		if IsCollectionFolder(addr.Skill) {
			return "", badRequest("invalid skill name %q", addr.Skill)
		}
		return filepath.Join(r.root, addr.Skill), nil
	}

	collectionDir, err := r.CollectionDir(addr.Collection)
	if err != nil {
		return "", err
	}
	return filepath.Join(collectionDir, addr.Skill), nil
}

// FilePath returns the path of filePath inside the skill at addr.
// filePath is slash-separated and must already be percent-decoded.
func (r *Resolver) FilePath(addr Address, filePath string) (string, error) {
	skillDir, err := r.SkillDir(addr)
	if err != nil {
		return "", err
	}

	segments, err := SplitFilePath(filePath)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{skillDir}, segments...)...), nil
}

// SplitFilePath validates a relative file path and returns its segments.
// Absolute paths and ".", ".." or empty segments are rejected.
func SplitFilePath(filePath string) ([]string, error) {
	if filePath == "" {
		return nil, badRequest("file path is required")
	}
	if strings.HasPrefix(filePath, "/") || filepath.IsAbs(filePath) {
		return nil, badRequest("invalid file path %q", filePath)
	}

	segments := strings.Split(filePath, "/")
	for _, segment := range segments {
		if err := validateSegment("file path", segment); err != nil {
			return nil, badRequest("invalid file path %q", filePath)
		}
	}
	return segments, nil
}

// CollectionFolder returns the on-disk folder name for a collection
func CollectionFolder(name string) string {
	return name + CollectionSuffix
}

// IsCollectionFolder reports whether a root-level folder name denotes a collection
func IsCollectionFolder(folder string) bool {
	return strings.HasSuffix(folder, CollectionSuffix)
}

// CollectionName returns the display name of a collection folder
func CollectionName(folder string) string {
	return strings.TrimSuffix(folder, CollectionSuffix)
}

// IsSkillDir reports whether dir directly contains a SKILL.md file
func IsSkillDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, SkillFileName))
	return err == nil && info.Mode().IsRegular()
}

// ValidateName checks a skill or collection name at creation time
func ValidateName(name string) error {
	if name == "" {
		return badRequest("name is required")
	}
	if !namePattern.MatchString(name) {
		return badRequest("invalid name %q: only lowercase letters, digits and hyphens are allowed", name)
	}
	if reservedNames[name] {
		return badRequest("name %q is reserved", name)
	}
	return nil
}

func validateSegment(what, segment string) error {
	switch {
	case segment == "":
		return badRequest("%s is required", what)
	case segment == "." || segment == "..":
		return badRequest("invalid %s %q", what, segment)
	case strings.ContainsAny(segment, "/\\\x00"):
		return badRequest("invalid %s %q", what, segment)
	}
	return nil
}
