// Package skills manages skill definitions stored on disk. A skill is a
// directory containing a SKILL.md file with a frontmatter block describing
// the skill, plus any supporting files. Skills live either at the root of
// the store or inside a one-level collection directory.
package skills

const (
	// SkillFileName is the metadata file that makes a directory a skill.
	SkillFileName = "SKILL.md"

	// CollectionSuffix marks a root-level directory as a collection.
	CollectionSuffix = "__collection"

	// NoCollection is the route sentinel standing for "no collection".
	NoCollection = "_"
)

// Metadata represents the record stored in a SKILL.md file
type Metadata struct {
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	Dependencies string `json:"dependencies" yaml:"dependencies,omitempty"`
	Body         string `json:"body" yaml:"body,omitempty"`
}

// Skill is a skill discovered in the store
type Skill struct {
	Metadata `yaml:",inline"`

	// Collection is nil for skills at the store root.
	Collection *string `json:"collection" yaml:"collection"`
	// FolderName is the on-disk directory name, which may differ from Name.
	FolderName string `json:"folderName" yaml:"folderName"`
}

// Address returns the logical address of the skill's directory
func (s *Skill) Address() Address {
	addr := Address{Skill: s.FolderName}
	if s.Collection != nil {
		addr.Collection = *s.Collection
	}
	return addr
}

// Collection is a named one-level grouping of skills
type Collection struct {
	Name       string `json:"name" yaml:"name"`
	FolderName string `json:"-" yaml:"-"`
}

// File is a file inside a skill directory
type File struct {
	// Name is the slash-separated path relative to the skill directory.
	Name string `json:"name" yaml:"name"`
	Size int64  `json:"size" yaml:"size"`
}

func collectionRef(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}
