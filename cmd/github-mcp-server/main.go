package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/quanticsoul4772/github-mcp-sub000/internal/ghmcp"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
)

// version is set by the build process via ldflags.
var version = "version"

var (
	rootCmd = &cobra.Command{
		Use:     "server",
		Short:   "GitHub MCP Server",
		Long:    `A GitHub MCP server that handles various tools and resources.`,
		Version: version,
	}

	stdioCmd = &cobra.Command{
		Use:   "stdio",
		Short: "Start stdio server",
		Long:  `Start a server that communicates via standard input/output streams using JSON-RPC messages.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			token := viper.GetString("personal_access_token")
			if token == "" {
				return errors.New("GITHUB_PERSONAL_ACCESS_TOKEN environment variable is not set")
			}

			var enabledToolsets []string
			if err := viper.UnmarshalKey("toolsets", &enabledToolsets); err != nil {
				return fmt.Errorf("failed to unmarshal toolsets: %w", err)
			}
			var enabledTools []string
			if err := viper.UnmarshalKey("tools", &enabledTools); err != nil {
				return fmt.Errorf("failed to unmarshal tools: %w", err)
			}

			t, dumpTranslations := translations.TranslationHelper()

			if viper.GetBool("export-translations") {
				dumpTranslations()
			}

			stdioServerConfig := ghmcp.StdioServerConfig{
				Version:           version,
				Host:              viper.GetString("host"),
				Token:             token,
				EnabledToolsets:   enabledToolsets,
				EnabledTools:      enabledTools,
				ReadOnly:          viper.GetBool("read-only"),
				LogFilePath:       viper.GetString("log-file"),
				Translator:        t,
				ContentWindowSize: viper.GetInt("content-window-size"),
			}
			return ghmcp.RunStdioServer(stdioServerConfig)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetVersionTemplate("{{.Short}}\n{{.Version}}\n")
	rootCmd.SetGlobalNormalizationFunc(wordSepNormalizeFunc)

	rootCmd.PersistentFlags().StringSlice("toolsets", nil, "Comma-separated list of tool groups to enable (use \"all\" for everything, \"default\" for the default set)")
	rootCmd.PersistentFlags().StringSlice("tools", nil, "Comma-separated list of individual tools to enable regardless of toolset selection")
	rootCmd.PersistentFlags().Bool("read-only", false, "Restrict the server to read-only operations")
	rootCmd.PersistentFlags().String("log-file", "", "Path to log file")
	rootCmd.PersistentFlags().Bool("export-translations", false, "Save translations to a JSON file")
	rootCmd.PersistentFlags().String("gh-host", "", "Specify the GitHub hostname (for GitHub Enterprise etc.)")
	rootCmd.PersistentFlags().Int("content-window-size", 5000, "Specify the content window size")

	_ = viper.BindPFlag("toolsets", rootCmd.PersistentFlags().Lookup("toolsets"))
	_ = viper.BindPFlag("tools", rootCmd.PersistentFlags().Lookup("tools"))
	_ = viper.BindPFlag("read-only", rootCmd.PersistentFlags().Lookup("read-only"))
	_ = viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("export-translations", rootCmd.PersistentFlags().Lookup("export-translations"))
	_ = viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("gh-host"))
	_ = viper.BindPFlag("content-window-size", rootCmd.PersistentFlags().Lookup("content-window-size"))

	rootCmd.AddCommand(stdioCmd)
}

func initConfig() {
	viper.SetEnvPrefix("github")
	viper.AutomaticEnv()
}

// wordSepNormalizeFunc lets flags be written with underscores as well as
// dashes, matching the corresponding environment variable names.
func wordSepNormalizeFunc(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	from := []string{"_"}
	to := "-"
	for _, sep := range from {
		name = strings.ReplaceAll(name, sep, to)
	}
	return pflag.NormalizedName(name)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
