// Package config defines the site-wide configuration threaded explicitly
// through the generation pipeline. Nothing here is global mutable state, so
// multiple builds can run independently in one process.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Config represents the site generation configuration
type Config struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	Subtitle   string `yaml:"subtitle,omitempty"`
	Language   string `yaml:"language,omitempty"`
	AuthorLink string `yaml:"author_link,omitempty"`

	ContentDirectory   string `yaml:"content_directory"`
	StaticDirectory    string `yaml:"static_directory,omitempty"`
	TemplatesDirectory string `yaml:"templates_directory,omitempty"`
	BuildDirectory     string `yaml:"build_directory"`

	// AcceptedExtensions lists the file extensions eligible as content.
	AcceptedExtensions []string `yaml:"accepted_extensions,omitempty"`

	// PostsPerPage <= 0 disables pagination.
	PostsPerPage int `yaml:"posts_per_page,omitempty"`

	PublishDateKey    string `yaml:"publish_date_key,omitempty"`
	ReadDateFormat    string `yaml:"read_date_format,omitempty"`
	DisplayDateFormat string `yaml:"display_date_format,omitempty"`

	Aggregate  AggregateConfig  `yaml:"aggregate,omitempty"`
	Categories CategoriesConfig `yaml:"categories,omitempty"`
	Archive    ArchiveConfig    `yaml:"archive,omitempty"`
	Navigation NavigationConfig `yaml:"navigation,omitempty"`

	// SkipOnError continues a build past unreadable or unparsable documents,
	// collecting diagnostics instead of aborting. Default is abort-on-first-error.
	SkipOnError bool `yaml:"skip_on_error,omitempty"`

	LowercaseHrefs bool `yaml:"lowercase_hrefs,omitempty"`

	// NotFoundForMissingIndex renders a not-found page for folders without an
	// index instead of an auto-generated aggregated index.
	NotFoundForMissingIndex bool `yaml:"not_found_for_missing_index,omitempty"`
}

// AggregateConfig controls which folders get aggregated index pages and what
// the home page aggregates.
type AggregateConfig struct {
	// Recursive aggregates whole subtrees instead of direct children only.
	Recursive bool `yaml:"recursive,omitempty"`

	// LocalInclude/LocalExclude select folders (by name or path) for index
	// aggregation. At most one may be set.
	LocalInclude []string `yaml:"local_include,omitempty"`
	LocalExclude []string `yaml:"local_exclude,omitempty"`

	// HomeInclude/HomeExclude select post parents (by name or path) for the
	// home page aggregation. At most one may be set.
	HomeInclude []string `yaml:"home_include,omitempty"`
	HomeExclude []string `yaml:"home_exclude,omitempty"`
}

// CategoriesConfig controls category page generation.
type CategoriesConfig struct {
	Build              bool   `yaml:"build,omitempty"`
	AllowUncategorized bool   `yaml:"allow_uncategorized,omitempty"`
	UncategorizedName  string `yaml:"uncategorized_name,omitempty"`
	ListPageName       string `yaml:"list_page_name,omitempty"`
	Group              bool   `yaml:"group,omitempty"`
}

// ArchiveConfig controls archive page generation.
type ArchiveConfig struct {
	ByMonth      bool   `yaml:"by_month,omitempty"`
	ByYear       bool   `yaml:"by_year,omitempty"`
	MonthFormat  string `yaml:"month_format,omitempty"`
	YearFormat   string `yaml:"year_format,omitempty"`
	ListPageName string `yaml:"list_page_name,omitempty"`
	Group        bool   `yaml:"group,omitempty"`
}

// NavigationConfig controls the site navigation structure.
type NavigationConfig struct {
	// HomeName, when set, prepends a home entry with this label.
	HomeName string `yaml:"home_name,omitempty"`

	// Exclude lists node names or paths to leave out of the navigation.
	Exclude []string `yaml:"exclude,omitempty"`

	ExcludeCategories bool `yaml:"exclude_categories,omitempty"`
	ExcludeArchive    bool `yaml:"exclude_archive,omitempty"`

	// IncludePosts whitelists posts (normally excluded) into the navigation.
	IncludePosts []string `yaml:"include_posts,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, sgerrors.New(sgerrors.CategoryConfig, sgerrors.SeverityFatal,
			"configuration file not found").WithContext("path", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal,
			"failed to read config file").WithContext("path", configPath)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal,
			"failed to unmarshal config").WithContext("path", configPath)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults fills in the defaults for any unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "My Site"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.ContentDirectory == "" {
		c.ContentDirectory = "content"
	}
	if c.StaticDirectory == "" {
		c.StaticDirectory = "static"
	}
	if c.TemplatesDirectory == "" {
		c.TemplatesDirectory = "templates"
	}
	if c.BuildDirectory == "" {
		c.BuildDirectory = "build"
	}
	if len(c.AcceptedExtensions) == 0 {
		c.AcceptedExtensions = []string{".md"}
	}
	if c.PublishDateKey == "" {
		c.PublishDateKey = "publish_date"
	}
	if c.ReadDateFormat == "" {
		c.ReadDateFormat = "02-01-2006 15:04"
	}
	if c.DisplayDateFormat == "" {
		c.DisplayDateFormat = "January 2, 2006"
	}
	if c.Categories.UncategorizedName == "" {
		c.Categories.UncategorizedName = "uncategorized"
	}
	if c.Categories.ListPageName == "" {
		c.Categories.ListPageName = "categories"
	}
	if c.Archive.MonthFormat == "" {
		c.Archive.MonthFormat = "January, 2006"
	}
	if c.Archive.YearFormat == "" {
		c.Archive.YearFormat = "2006"
	}
	if c.Archive.ListPageName == "" {
		c.Archive.ListPageName = "archive"
	}
}

// Validate checks the configuration for unsupported combinations.
func (c *Config) Validate() error {
	if len(c.Aggregate.LocalInclude) > 0 && len(c.Aggregate.LocalExclude) > 0 {
		return sgerrors.New(sgerrors.CategoryValidation, sgerrors.SeverityFatal,
			"both aggregate.local_include and aggregate.local_exclude are set; specify at most one")
	}
	if len(c.Aggregate.HomeInclude) > 0 && len(c.Aggregate.HomeExclude) > 0 {
		return sgerrors.New(sgerrors.CategoryValidation, sgerrors.SeverityFatal,
			"both aggregate.home_include and aggregate.home_exclude are set; specify at most one")
	}
	for _, ext := range c.AcceptedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return sgerrors.New(sgerrors.CategoryValidation, sgerrors.SeverityFatal,
				"accepted extensions must start with a dot").WithContext("extension", ext)
		}
	}
	return nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Name:             "My Site",
		URL:              "https://example.com",
		Subtitle:         "Notes and posts",
		ContentDirectory: "content",
		StaticDirectory:  "static",
		BuildDirectory:   "build",
		PostsPerPage:     10,
		Categories: CategoriesConfig{
			Build:              true,
			AllowUncategorized: true,
			Group:              true,
		},
		Archive: ArchiveConfig{
			ByMonth: true,
			Group:   true,
		},
	}
	exampleConfig.ApplyDefaults()

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// loadEnvFile loads environment variables from .env file
func loadEnvFile() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return err
	}
	return godotenv.Load()
}
