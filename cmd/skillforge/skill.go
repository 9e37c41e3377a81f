package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/jingkaihe/skillforge/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// SkillListConfig holds flags for skill list and skill files
type SkillListConfig struct {
	Collection string
	Pattern    string
	Output     string
}

// NewSkillListConfig creates a SkillListConfig with default values
func NewSkillListConfig() *SkillListConfig {
	return &SkillListConfig{Output: OutputTable}
}

// SkillExportConfig holds flags for skill export
type SkillExportConfig struct {
	Collection string
	Out        string
}

// SkillRemoveConfig holds flags for skill remove
type SkillRemoveConfig struct {
	Collection string
	Yes        bool
}

// SkillMoveConfig holds flags for skill move
type SkillMoveConfig struct {
	From string
	To   string
}

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage skills",
	Long:  `List, import, export, move and remove skills in the skills directory.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all skills",
	Long:  `List root-level skills followed by the skills of each collection.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		store, err := openStore()
		exitOnError(err, "failed to open skill store")

		config := getSkillListConfigFromFlags(cmd)
		exitOnError(runSkillList(cmd.Context(), store, config, os.Stdout, presenter.New()), "failed to list skills")
	},
}

var skillFilesCmd = &cobra.Command{
	Use:   "files <skill>",
	Short: "List the files of a skill",
	Long: `List every file inside a skill with its size.

Examples:
  skillforge skill files pdf
  skillforge skill files api --collection docs --pattern '**/*.md'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		exitOnError(err, "failed to open skill store")

		config := getSkillListConfigFromFlags(cmd)
		exitOnError(runSkillFiles(cmd.Context(), store, args[0], config, os.Stdout, presenter.New()), "failed to list files")
	},
}

var skillImportCmd = &cobra.Command{
	Use:   "import <archive.zip>...",
	Short: "Import skills from zip archives",
	Long: `Import one skill per zip archive. The skill is named after the archive file
without its .zip extension. An archive holding a single top-level directory is
unwrapped; the result must contain SKILL.md at its top level.

Examples:
  skillforge skill import pdf.zip
  skillforge skill import api.zip cli.zip --collection docs`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		exitOnError(err, "failed to open skill store")

		collection, _ := cmd.Flags().GetString("collection")
		exitOnError(runSkillImport(cmd.Context(), store, collection, args, presenter.New()), "import failed")
	},
}

var skillExportCmd = &cobra.Command{
	Use:   "export <skill>",
	Short: "Export a skill as a zip archive",
	Long: `Write a skill directory to a zip archive wrapped in a directory named after the skill.
The archive is written to <skill>.zip unless --out is given; "--out -" writes to stdout.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		exitOnError(err, "failed to open skill store")

		config := &SkillExportConfig{}
		config.Collection, _ = cmd.Flags().GetString("collection")
		config.Out, _ = cmd.Flags().GetString("out")
		exitOnError(runSkillExport(cmd.Context(), store, args[0], config, os.Stdout, presenter.New()), "export failed")
	},
}

var skillRemoveCmd = &cobra.Command{
	Use:   "remove <skill>",
	Short: "Remove a skill and all of its files",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		exitOnError(err, "failed to open skill store")

		config := &SkillRemoveConfig{}
		config.Collection, _ = cmd.Flags().GetString("collection")
		config.Yes, _ = cmd.Flags().GetBool("yes")
		exitOnError(runSkillRemove(cmd.Context(), store, args[0], config, presenter.New()), "failed to remove skill")
	},
}

var skillMoveCmd = &cobra.Command{
	Use:   "move <skill>",
	Short: "Move a skill between collections",
	Long: `Move a skill between the root and collections. An empty --from or --to
means the root of the skills directory.

Examples:
  skillforge skill move pdf --to docs
  skillforge skill move api --from docs`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		exitOnError(err, "failed to open skill store")

		config := &SkillMoveConfig{}
		config.From, _ = cmd.Flags().GetString("from")
		config.To, _ = cmd.Flags().GetString("to")
		exitOnError(runSkillMove(cmd.Context(), store, args[0], config, presenter.New()), "failed to move skill")
	},
}

func init() {
	defaults := NewSkillListConfig()
	skillListCmd.Flags().StringP("output", "o", defaults.Output, "Output format (table, json, yaml)")

	skillFilesCmd.Flags().StringP("collection", "c", "", "Collection holding the skill")
	skillFilesCmd.Flags().StringP("pattern", "p", "", "Only list files matching this glob, e.g. '**/*.md'")
	skillFilesCmd.Flags().StringP("output", "o", defaults.Output, "Output format (table, json, yaml)")

	skillImportCmd.Flags().StringP("collection", "c", "", "Collection to import into")

	skillExportCmd.Flags().StringP("collection", "c", "", "Collection holding the skill")
	skillExportCmd.Flags().String("out", "", "Output file, defaults to <skill>.zip")

	skillRemoveCmd.Flags().StringP("collection", "c", "", "Collection holding the skill")
	skillRemoveCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	skillMoveCmd.Flags().String("from", "", "Source collection, empty for the root")
	skillMoveCmd.Flags().String("to", "", "Destination collection, empty for the root")

	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillFilesCmd)
	skillCmd.AddCommand(skillImportCmd)
	skillCmd.AddCommand(skillExportCmd)
	skillCmd.AddCommand(skillRemoveCmd)
	skillCmd.AddCommand(skillMoveCmd)
}

func getSkillListConfigFromFlags(cmd *cobra.Command) *SkillListConfig {
	config := NewSkillListConfig()
	if collection, err := cmd.Flags().GetString("collection"); err == nil {
		config.Collection = collection
	}
	if pattern, err := cmd.Flags().GetString("pattern"); err == nil {
		config.Pattern = pattern
	}
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	return config
}

func collectionLabel(c *string) string {
	if c == nil {
		return "-"
	}
	return *c
}

func runSkillList(ctx context.Context, store *skills.Store, config *SkillListConfig, w io.Writer, p presenter.Presenter) error {
	list, err := store.ListSkills(ctx)
	if err != nil {
		return err
	}

	if len(list) == 0 && (config.Output == OutputTable || config.Output == "") {
		p.Info(fmt.Sprintf("No skills found in %s", store.Root()))
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{s.Name, collectionLabel(s.Collection), s.FolderName, s.Description})
	}

	return writeOutput(w, p, config.Output, list, table{
		headers: []string{"NAME", "COLLECTION", "FOLDER", "DESCRIPTION"},
		rows:    rows,
	})
}

func runSkillFiles(ctx context.Context, store *skills.Store, name string, config *SkillListConfig, w io.Writer, p presenter.Presenter) error {
	addr := skills.Address{Collection: config.Collection, Skill: name}
	files, err := store.ListFiles(ctx, addr, config.Pattern)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.Name, strconv.FormatInt(f.Size, 10)})
	}

	return writeOutput(w, p, config.Output, files, table{
		headers: []string{"FILE", "SIZE"},
		rows:    rows,
	})
}

func runSkillImport(ctx context.Context, store *skills.Store, collection string, paths []string, p presenter.Presenter) error {
	uploads := make([]skills.Upload, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}
		uploads = append(uploads, skills.Upload{Filename: filepath.Base(path), Data: data})
	}

	result := store.ImportArchives(ctx, collection, uploads)
	for _, name := range result.Imported {
		p.Success(fmt.Sprintf("Imported skill %s", skills.Address{Collection: collection, Skill: name}))
	}
	for _, f := range result.Failed {
		p.Error(errors.New(f.Error), fmt.Sprintf("failed to import %s", f.Name))
	}

	if len(result.Failed) > 0 {
		return errors.Errorf("%d of %d archives failed to import", len(result.Failed), len(uploads))
	}
	return nil
}

func runSkillExport(ctx context.Context, store *skills.Store, name string, config *SkillExportConfig, stdout io.Writer, p presenter.Presenter) error {
	data, err := store.ExportSkill(ctx, skills.Address{Collection: config.Collection, Skill: name})
	if err != nil {
		return err
	}

	if config.Out == "-" {
		_, err := stdout.Write(data)
		return err
	}

	out := config.Out
	if out == "" {
		out = name + ".zip"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", out)
	}

	p.Success(fmt.Sprintf("Exported %s to %s", name, out))
	return nil
}

func runSkillRemove(ctx context.Context, store *skills.Store, name string, config *SkillRemoveConfig, p presenter.Presenter) error {
	addr := skills.Address{Collection: config.Collection, Skill: name}

	if !config.Yes && !p.Confirm(fmt.Sprintf("Remove skill %s and all of its files?", addr)) {
		p.Info("Aborted")
		return nil
	}

	if err := store.DeleteSkill(ctx, addr); err != nil {
		return err
	}

	p.Success(fmt.Sprintf("Removed skill %s", addr))
	return nil
}

func runSkillMove(ctx context.Context, store *skills.Store, name string, config *SkillMoveConfig, p presenter.Presenter) error {
	if config.From == config.To {
		return errors.New("source and destination are the same")
	}

	if err := store.MoveSkill(ctx, name, config.From, config.To); err != nil {
		return err
	}

	p.Success(fmt.Sprintf("Moved %s to %s", skills.Address{Collection: config.From, Skill: name},
		skills.Address{Collection: config.To, Skill: name}))
	return nil
}
