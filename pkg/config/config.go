package config

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/shishobooks/organize-ebooks/pkg/convert"
	"github.com/shishobooks/organize-ebooks/pkg/corruption"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/identifiers"
	"github.com/shishobooks/organize-ebooks/pkg/metadata"
	"github.com/shishobooks/organize-ebooks/pkg/pamphlet"
	"github.com/shishobooks/organize-ebooks/pkg/resolver"
	"github.com/shishobooks/organize-ebooks/pkg/sidecar"
)

const (
	// EnvPrefix is stripped from environment variables before they are
	// matched against config keys.
	EnvPrefix = "ORGANIZE_EBOOKS_"
	// ConfigFileEnv names the YAML file read when no explicit path is given.
	ConfigFileEnv = EnvPrefix + "CONFIG_FILE"
)

type Config struct {
	FolderToOrganize      string `koanf:"folder_to_organize" mod:"trim" validate:"required"`
	OutputFolder          string `koanf:"output_folder" mod:"trim" default:"."`
	OutputFolderUncertain string `koanf:"output_folder_uncertain" mod:"trim"`
	OutputFolderCorrupt   string `koanf:"output_folder_corrupt" mod:"trim"`
	OutputFolderPamphlets string `koanf:"output_folder_pamphlets" mod:"trim"`

	DryRun              bool `koanf:"dry_run"`
	SymlinkOnly         bool `koanf:"symlink_only"`
	KeepMetadata        bool `koanf:"keep_metadata"`
	Reverse             bool `koanf:"reverse"`
	SkipArchives        bool `koanf:"skip_archives"`
	OrganizeWithoutISBN bool `koanf:"organize_without_isbn"`

	CorruptionCheck         string `koanf:"corruption_check" mod:"trim,lcase" default:"true" validate:"oneof=true false check_only"`
	TestedArchiveExtensions string `koanf:"tested_archive_extensions"`

	ISBNRegex              string   `koanf:"isbn_regex"`
	ISBNBlacklistRegex     string   `koanf:"isbn_blacklist_regex"`
	ISBNDirectFiles        string   `koanf:"isbn_direct_files"`
	ISBNIgnoredFiles       string   `koanf:"isbn_ignored_files"`
	ISBNReorderFiles       bool     `koanf:"isbn_reorder_files" default:"true"`
	ISBNReorderFirstLines  int      `koanf:"isbn_reorder_first_lines" default:"400" validate:"gte=0"`
	ISBNReorderLastLines   int      `koanf:"isbn_reorder_last_lines" default:"50" validate:"gte=0"`
	ISBNReturnSeparator    string   `koanf:"isbn_return_separator"`
	ISBNMetadataFetchOrder []string `koanf:"isbn_metadata_fetch_order" mod:"dive,trim"`
	MaxISBNs               int      `koanf:"max_isbns" default:"5" validate:"gte=1"`

	OrganizeWithoutISBNSources []string `koanf:"organize_without_isbn_sources" mod:"dive,trim"`
	WithoutISBNIgnore          string   `koanf:"without_isbn_ignore"`

	PamphletIncludedFiles  string `koanf:"pamphlet_included_files"`
	PamphletExcludedFiles  string `koanf:"pamphlet_excluded_files"`
	PamphletMaxPDFPages    int    `koanf:"pamphlet_max_pdf_pages" validate:"gte=0"`
	PamphletMaxFilesizeKiB int64  `koanf:"pamphlet_max_filesize_kib" validate:"gte=0"`

	OCREnabled            string `koanf:"ocr_enabled" mod:"trim,lcase" default:"false" validate:"oneof=true false always"`
	OCROnlyFirstLastPages bool   `koanf:"ocr_only_first_last_pages" default:"true"`
	OCRFirstPages         int    `koanf:"ocr_first_pages" default:"7" validate:"gte=0"`
	OCRLastPages          int    `koanf:"ocr_last_pages" default:"3" validate:"gte=0"`
	OCRCommand            string `koanf:"ocr_command" mod:"trim" default:"tesseract"`

	DjvuConvertMethod   string `koanf:"djvu_convert_method" mod:"trim"`
	EpubConvertMethod   string `koanf:"epub_convert_method" mod:"trim"`
	MSWordConvertMethod string `koanf:"msword_convert_method" mod:"trim"`
	PDFConvertMethod    string `koanf:"pdf_convert_method" mod:"trim"`

	OutputFilenameTemplate  string `koanf:"output_filename_template"`
	OutputMetadataExtension string `koanf:"output_metadata_extension" mod:"trim"`

	ScratchDir   string `koanf:"scratch_dir" mod:"trim"`
	LockFilePath string `koanf:"lock_file_path" mod:"trim"`

	JournalFilePath          string        `koanf:"journal_file_path" mod:"trim"`
	JournalBusyTimeout       time.Duration `koanf:"journal_busy_timeout" default:"5s"`
	JournalConnectRetryCount int           `koanf:"journal_connect_retry_count" default:"5" validate:"gte=0"`
	JournalConnectRetryDelay time.Duration `koanf:"journal_connect_retry_delay" default:"2s"`
	JournalDebug             bool          `koanf:"journal_debug"`

	LogLevel string `koanf:"log_level" mod:"trim,lcase" default:"info" validate:"oneof=debug info warn error"`
}

// SetDefaults fills in the values that can't be expressed as struct tags. It's
// called by defaults.Set.
func (c *Config) SetDefaults() {
	convertMethods := convert.DefaultMethods()

	if c.TestedArchiveExtensions == "" {
		c.TestedArchiveExtensions = corruption.DefaultTestedArchiveExtensions
	}
	if c.ISBNRegex == "" {
		c.ISBNRegex = identifiers.DefaultISBNRegex
	}
	if c.ISBNBlacklistRegex == "" {
		c.ISBNBlacklistRegex = identifiers.DefaultBlacklistRegex
	}
	if c.ISBNDirectFiles == "" {
		c.ISBNDirectFiles = identifiers.DefaultDirectFilesRegex
	}
	if c.ISBNIgnoredFiles == "" {
		c.ISBNIgnoredFiles = identifiers.DefaultIgnoredFilesRegex
	}
	if c.ISBNReturnSeparator == "" {
		c.ISBNReturnSeparator = identifiers.DefaultReturnSeparator
	}
	if c.ISBNMetadataFetchOrder == nil {
		c.ISBNMetadataFetchOrder = append([]string(nil), resolver.DefaultFetchOrder...)
	}
	if c.OrganizeWithoutISBNSources == nil {
		c.OrganizeWithoutISBNSources = append([]string(nil), resolver.DefaultWithoutISBNSources...)
	}
	if c.WithoutISBNIgnore == "" {
		c.WithoutISBNIgnore = resolver.PeriodicalIgnoreRegex(time.Now())
	}
	if c.PamphletIncludedFiles == "" {
		c.PamphletIncludedFiles = pamphlet.DefaultIncludedFiles
	}
	if c.PamphletExcludedFiles == "" {
		c.PamphletExcludedFiles = pamphlet.DefaultExcludedFiles
	}
	if c.PamphletMaxPDFPages == 0 {
		c.PamphletMaxPDFPages = pamphlet.DefaultMaxPDFPages
	}
	if c.PamphletMaxFilesizeKiB == 0 {
		c.PamphletMaxFilesizeKiB = pamphlet.DefaultMaxSizeKiB
	}
	if c.DjvuConvertMethod == "" {
		c.DjvuConvertMethod = convertMethods.DjVu
	}
	if c.EpubConvertMethod == "" {
		c.EpubConvertMethod = convertMethods.EPUB
	}
	if c.MSWordConvertMethod == "" {
		c.MSWordConvertMethod = convertMethods.MSWord
	}
	if c.PDFConvertMethod == "" {
		c.PDFConvertMethod = convertMethods.PDF
	}
	if c.OutputFilenameTemplate == "" {
		c.OutputFilenameTemplate = metadata.DefaultFilenameTemplate
	}
	if c.OutputMetadataExtension == "" {
		c.OutputMetadataExtension = sidecar.DefaultExtension
	}
}

type options struct {
	configFile     string
	overrides      map[string]interface{}
	withoutFolders bool
}

// Option customizes how New loads the config.
type Option func(*options)

// WithConfigFile reads the given YAML file instead of the one named by
// ORGANIZE_EBOOKS_CONFIG_FILE. Unlike the environment variable, the file must
// exist.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithOverrides layers values on top of the file and environment, keyed by
// config key. This is how command line flags are applied.
func WithOverrides(overrides map[string]interface{}) Option {
	return func(o *options) { o.overrides = overrides }
}

// WithoutFolders is for commands that never touch the ebooks: folder_to_organize
// isn't required and no folder has to exist.
func WithoutFolders() Option {
	return func(o *options) { o.withoutFolders = true }
}

// New loads the config from, in increasing order of precedence, the defaults,
// the YAML config file, ORGANIZE_EBOOKS_* environment variables, and any
// overrides.
func New(opts ...Option) (*Config, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	base := &Config{}
	if err := defaults.Set(base); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(toMap(base), "."), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	configFile, explicit := o.configFile, o.configFile != ""
	if !explicit {
		configFile = os.Getenv(ConfigFileEnv)
	}
	if configFile != "" {
		_, statErr := os.Stat(configFile)
		switch {
		case statErr == nil:
			if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
				return nil, errcodes.Configuration(fmt.Sprintf("Could not read config file %s: %s", configFile, err))
			}
		case explicit || !os.IsNotExist(statErr):
			return nil, errcodes.Configuration(fmt.Sprintf("Could not read config file %s: %s", configFile, statErr))
		}
	}

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(o.overrides) > 0 {
		if err := k.Load(confmap.Provider(o.overrides, "."), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errcodes.Configuration(fmt.Sprintf("Invalid config: %s", err))
	}

	if o.withoutFolders && cfg.FolderToOrganize == "" {
		cfg.FolderToOrganize = "."
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if !o.withoutFolders {
		if err := cfg.CheckFolders(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewForTest returns the defaults with an in-memory journal. Folders are left
// empty for the test to fill in.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.JournalFilePath = ":memory:"
	cfg.LogLevel = "debug"
	return cfg
}

// CheckFolders makes sure every configured folder exists.
func (c *Config) CheckFolders() error {
	folders := []string{
		c.FolderToOrganize,
		c.OutputFolder,
		c.OutputFolderUncertain,
		c.OutputFolderCorrupt,
		c.OutputFolderPamphlets,
	}
	for _, folder := range folders {
		if folder == "" {
			continue
		}
		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			return errcodes.Configuration(fmt.Sprintf("Folder doesn't exist: %s", folder))
		}
	}
	return nil
}

func (c *Config) validate() error {
	if err := modifiers.New().Struct(context.Background(), c); err != nil {
		return errors.WithStack(err)
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("koanf")
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.WithStack(err)
	}

	fe := verrs[0]
	key := fe.Field()
	if fe.Tag() == "required" {
		return errcodes.Configuration(fmt.Sprintf("missing required config: set %s or %s in the config file", envName(key), key))
	}
	return errcodes.Configuration(fmt.Sprintf("invalid config value %q for %s (%s): failed %s %s", fe.Value(), key, envName(key), fe.Tag(), fe.Param()))
}

// listKeys are given as comma separated lists in the environment.
var listKeys = map[string]bool{
	"isbn_metadata_fetch_order":     true,
	"organize_without_isbn_sources": true,
}

func splitList(value string) []string {
	list := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func envName(key string) string {
	return EnvPrefix + strcase.ToScreamingSnake(key)
}

// toMap flattens a config into koanf keys so the defaults can be loaded as
// the lowest layer.
func toMap(c *Config) map[string]interface{} {
	m := map[string]interface{}{}
	v := reflect.ValueOf(c).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("koanf")
		if key == "" {
			continue
		}
		m[key] = v.Field(i).Interface()
	}
	return m
}
