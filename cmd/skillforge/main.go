package main

import (
	"fmt"
	"os"

	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/skills"
	"github.com/jingkaihe/skillforge/pkg/webui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.SetEnvPrefix("SKILLFORGE")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillforge")
	viper.AddConfigPath(".")

	viper.SetDefault("skills_dir", "./skills")
	viper.SetDefault("host", "localhost")
	viper.SetDefault("port", 8765)
	viper.SetDefault("static_dir", "")
	viper.SetDefault("max_upload_size", webui.DefaultMaxUploadSize)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")

	// the config file is optional
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillforge",
	Short: "Manage a directory of agent skills",
	Long: `skillforge manages skills stored on disk. A skill is a directory holding a
SKILL.md file plus supporting files; skills live at the root of the skills
directory or inside one level of collections.

Run "skillforge serve" to browse and edit skills through the web UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Configure(viper.GetString("log_level"), viper.GetString("log_format")); err != nil {
			return err
		}
		cmd.SetContext(logger.WithComponent(cmd.Context(), "cli"))
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

// openStore opens the skill store at the configured skills directory
func openStore() (*skills.Store, error) {
	store, err := skills.NewStore(viper.GetString("skills_dir"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open skills directory")
	}
	return store, nil
}

func main() {
	rootCmd.PersistentFlags().String("skills-dir", "./skills", "Directory holding skills and collections")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")

	viper.BindPFlag("skills_dir", rootCmd.PersistentFlags().Lookup("skills-dir"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(skillCmd)
	rootCmd.AddCommand(collectionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
