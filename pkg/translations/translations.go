// Package translations lets tool descriptions be overridden through the
// environment or a JSON config file, so operators can tune the text shown
// to MCP hosts without rebuilding the server.
package translations

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// TranslationHelperFunc resolves a description key to its text, falling back
// to defaultValue when no override exists.
type TranslationHelperFunc func(key string, defaultValue string) string

// NullTranslationHelper always returns the default value.
func NullTranslationHelper(_ string, defaultValue string) string {
	return defaultValue
}

// TranslationHelper returns a helper that consults GITHUB_MCP_ prefixed
// environment variables and github-mcp-server-config.json for overrides,
// plus a dump function that writes every key seen so far back to the
// config file as a template for operators.
func TranslationHelper() (TranslationHelperFunc, func()) {
	var translationKeyMap = map[string]string{}
	v := viper.New()

	v.SetEnvPrefix("GITHUB_MCP_")
	v.AutomaticEnv()

	v.SetConfigName("github-mcp-server-config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("could not read translation config file", "error", err)
		}
	}

	return func(key string, defaultValue string) string {
			key = strings.ToUpper(key)
			if value, exists := translationKeyMap[key]; exists {
				return value
			}

			value := v.GetString(key)
			if value == "" {
				value = defaultValue
			}

			translationKeyMap[key] = value
			return value
		}, func() {
			dumpTranslationKeyMap(translationKeyMap)
		}
}

func dumpTranslationKeyMap(translationKeyMap map[string]string) {
	file, err := os.Create("github-mcp-server-config.json")
	if err != nil {
		slog.Error("could not create translation config file", "error", err)
		return
	}
	defer func() { _ = file.Close() }()

	doc, err := json.MarshalIndent(translationKeyMap, "", "  ")
	if err != nil {
		slog.Error("could not marshal translation keys", "error", err)
		return
	}

	if _, err := file.Write(doc); err != nil {
		slog.Error(fmt.Sprintf("could not write translation config file: %v", err))
	}
}
