package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// docsDirCandidates are checked in order to suggest a docs_dir.
var docsDirCandidates = []string{"docs", "doc", "documentation", "content"}

// detectDocsDir returns the first existing candidate directory, or "docs".
func detectDocsDir() string {
	for _, dir := range docsDirCandidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "docs"
}

// RunWizard runs an interactive configuration wizard and saves the result to
// path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to tocsync! Let's configure your site.")
	fmt.Println()

	cfg := DefaultConfig()

	docsDir, err := (&promptui.Prompt{
		Label:   "Markdown source directory",
		Default: detectDocsDir(),
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("docs dir: %w", err)
	}
	cfg.DocsDir = docsDir

	siteDir, err := (&promptui.Prompt{
		Label:   "Output directory for the built site",
		Default: cfg.SiteDir,
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("site dir: %w", err)
	}
	cfg.SiteDir = siteDir

	siteName, err := (&promptui.Prompt{
		Label:   "Site name",
		Default: cfg.SiteName,
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("site name: %w", err)
	}
	cfg.SiteName = siteName

	excludeStr, err := (&promptui.Prompt{
		Label: "Extra exclude patterns (comma-separated, leave blank for defaults)",
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	cfg.Exclude = append(cfg.Exclude, splitAndTrim(excludeStr)...)

	minifyIdx, _, err := (&promptui.Select{
		Label: "Minify generated HTML",
		Items: []string{"no", "yes"},
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("minify selection: %w", err)
	}
	cfg.Minify = minifyIdx == 1

	portStr, err := (&promptui.Prompt{
		Label:   "Port for tocsync serve",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return fmt.Errorf("not a valid port")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and drops empty entries.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
