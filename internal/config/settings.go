package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// Default values used when neither the config file nor the environment
// provides one.
const (
	DefaultPersonA       = "User A"
	DefaultPersonB       = "User B"
	DefaultMinConfidence = 0.5
	DefaultRetryDelay    = 100 * time.Millisecond
)

// categoryEntry is one item of the "categories" config list.
type categoryEntry struct {
	Name          string   `mapstructure:"name"`
	Subcategories []string `mapstructure:"subcategories"`
}

// Settings is the resolved application configuration.
type Settings struct {
	Categories    map[string][]string
	DatabasePath  string
	ImportPerson  string
	LogLevel      string
	LogFormat     string
	People        []string
	RetryDelay    time.Duration
	MinConfidence float64
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(DataDir(), "budget.db"))
	v.SetDefault("database.retry_delay", DefaultRetryDelay)
	v.SetDefault("import.min_confidence", DefaultMinConfidence)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load resolves settings from v. It follows this precedence:
// 1. Viper configuration (config file or BUDGET_ env vars)
// 2. Direct environment variables (USER_A_NAME, USER_B_NAME)
// 3. Default values
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		DatabasePath:  ExpandPath(v.GetString("database.path")),
		RetryDelay:    v.GetDuration("database.retry_delay"),
		MinConfidence: v.GetFloat64("import.min_confidence"),
		ImportPerson:  strings.TrimSpace(v.GetString("import.person")),
		LogLevel:      v.GetString("logging.level"),
		LogFormat:     v.GetString("logging.format"),
	}

	personA := firstNonEmpty(v.GetString("people.a"), os.Getenv("USER_A_NAME"), DefaultPersonA)
	personB := firstNonEmpty(v.GetString("people.b"), os.Getenv("USER_B_NAME"), DefaultPersonB)
	s.People = []string{personA, personB}

	// Viper folds map keys to lower case, so categories are configured as a
	// list to keep their names intact.
	var entries []categoryEntry
	if err := v.UnmarshalKey("categories", &entries); err != nil {
		return nil, fmt.Errorf("%w: categories: %w", common.ErrInvalidConfig, err)
	}
	if len(entries) > 0 {
		s.Categories = make(map[string][]string, len(entries))
		for _, entry := range entries {
			s.Categories[entry.Name] = append(s.Categories[entry.Name], entry.Subcategories...)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.DatabasePath) == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if s.RetryDelay < 0 {
		return fmt.Errorf("%w: database.retry_delay must not be negative", common.ErrInvalidConfig)
	}
	if s.MinConfidence < 0 || s.MinConfidence > 1 {
		return fmt.Errorf("%w: import.min_confidence must be between 0 and 1, got %v",
			common.ErrInvalidConfig, s.MinConfidence)
	}
	if len(s.People) == 2 && s.People[0] == s.People[1] {
		return fmt.Errorf("%w: people.a and people.b are both %q", common.ErrInvalidConfig, s.People[0])
	}
	if _, err := common.ParseLevel(s.LogLevel); err != nil {
		return err
	}
	switch s.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, s.LogFormat)
	}
	if _, err := s.Taxonomy(); err != nil {
		return err
	}
	return nil
}

// Taxonomy builds the seed taxonomy from the configured categories.
func (s *Settings) Taxonomy() (model.Taxonomy, error) {
	taxonomy, err := model.NewTaxonomy(s.Categories)
	if err != nil {
		return model.Taxonomy{}, fmt.Errorf("%w: categories: %w", common.ErrInvalidConfig, err)
	}
	return taxonomy, nil
}

// DefaultPerson returns the person imported expenses are attributed to.
func (s *Settings) DefaultPerson() string {
	if s.ImportPerson != "" {
		return s.ImportPerson
	}
	return s.People[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
