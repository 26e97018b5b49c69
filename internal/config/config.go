// Package config provides configuration loading and validation for the
// content synchronization server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-content-sync/internal/telemetry"
)

// EnvPrefix is the prefix of every environment variable read by the server.
const EnvPrefix = "THV_CONTENT_SYNC"

// PasswordEnvVar holds the database password when no password file is configured.
const PasswordEnvVar = EnvPrefix + "_DATABASE_PASSWORD"

const (
	// ProviderTypeFilesystem reads packages from a local directory
	ProviderTypeFilesystem = "filesystem"

	// ProviderTypeHTTP reads packages from an HTTP index
	ProviderTypeHTTP = "http"

	// ProviderTypeGit reads packages from a Git repository
	ProviderTypeGit = "git"

	// ProviderTypeS3 reads packages from an S3-compatible bucket
	ProviderTypeS3 = "s3"

	// ProviderTypeMemory serves packages from memory (tests and demos)
	ProviderTypeMemory = "memory"
)

const (
	// BlobStoreTypeFilesystem stores content on the local filesystem
	BlobStoreTypeFilesystem = "filesystem"

	// BlobStoreTypeMinio stores content in an S3-compatible object store via minio
	BlobStoreTypeMinio = "minio"
)

const (
	// ConcurrentRunReject rejects a second run for a repository immediately
	ConcurrentRunReject = "reject"

	// ConcurrentRunWait waits for the running sync up to LockWaitTimeout
	ConcurrentRunWait = "wait"
)

// Sync defaults
const (
	DefaultListTimeout      = 2 * time.Minute
	DefaultFetchTimeout     = 10 * time.Minute
	DefaultMaxAttempts      = 3
	DefaultInitialBackoff   = 500 * time.Millisecond
	DefaultMaxBackoff       = 30 * time.Second
	DefaultFetchConcurrency = 4
	DefaultSpoolThreshold   = 8 << 20
	DefaultMaxPackageSize   = 2 << 30
	DefaultLockWaitTimeout  = 30 * time.Second
	DefaultPollInterval     = 2 * time.Minute
	DefaultRetryInterval    = 5 * time.Minute
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// DataDir holds sync status files when no database is configured
	DataDir string `yaml:"dataDir,omitempty"`

	Providers    []ProviderConfig   `yaml:"providers"`
	Repositories []RepositoryConfig `yaml:"repositories"`
	Sync         SyncConfig         `yaml:"sync,omitempty"`
	BlobStore    BlobStoreConfig    `yaml:"blobStore"`

	// Database enables Postgres persistence; in-memory storage is used when nil
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ProviderConfig defines a single content provider. Exactly one of the
// type-specific sections must be set.
type ProviderConfig struct {
	Name string `yaml:"name"`

	Filesystem *FilesystemProviderConfig `yaml:"filesystem,omitempty"`
	HTTP       *HTTPProviderConfig       `yaml:"http,omitempty"`
	Git        *GitProviderConfig        `yaml:"git,omitempty"`
	S3         *S3ProviderConfig         `yaml:"s3,omitempty"`
	Memory     *MemoryProviderConfig     `yaml:"memory,omitempty"`

	// Filter restricts the packages this provider contributes
	Filter *FilterConfig `yaml:"filter,omitempty"`
}

// FilterConfig selects packages by name and type
type FilterConfig struct {
	// Names holds glob patterns matched against package names
	Names *RuleConfig `yaml:"names,omitempty"`

	// Types holds package types, matched case-insensitively
	Types *RuleConfig `yaml:"types,omitempty"`
}

// RuleConfig is a pair of include and exclude lists. Exclude takes precedence.
type RuleConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// IsEmpty reports whether the filter has no rules
func (f *FilterConfig) IsEmpty() bool {
	return f == nil || (f.Names.isEmpty() && f.Types.isEmpty())
}

func (r *RuleConfig) isEmpty() bool {
	return r == nil || (len(r.Include) == 0 && len(r.Exclude) == 0)
}

// FilesystemProviderConfig points at a directory containing an index manifest
type FilesystemProviderConfig struct {
	// Path is the root directory, absolute or relative to the working directory
	Path string `yaml:"path"`

	// IndexFile is the manifest name inside Path, defaults to index.yaml
	IndexFile string `yaml:"indexFile,omitempty"`
}

// HTTPProviderConfig defines an HTTP index provider
type HTTPProviderConfig struct {
	// Endpoint is the base URL; the index and relative content locations resolve against it
	Endpoint string `yaml:"endpoint"`

	// IndexPath is the index location below Endpoint, defaults to index.json
	IndexPath string `yaml:"indexPath,omitempty"`

	// Headers are added to every request
	Headers map[string]string `yaml:"headers,omitempty"`
}

// GitProviderConfig defines Git provider settings
type GitProviderConfig struct {
	// Repository is the Git repository URL (HTTP/HTTPS)
	Repository string `yaml:"repository"`

	// Branch is the Git branch to use (mutually exclusive with Tag and Commit)
	Branch string `yaml:"branch,omitempty"`

	// Tag is the Git tag to use (mutually exclusive with Branch and Commit)
	Tag string `yaml:"tag,omitempty"`

	// Commit is the Git commit SHA to use (mutually exclusive with Branch and Tag)
	Commit string `yaml:"commit,omitempty"`

	// Path is the index manifest within the repository, defaults to index.yaml
	Path string `yaml:"path,omitempty"`

	Username     string `yaml:"username,omitempty"`
	PasswordFile string `yaml:"passwordFile,omitempty"`
}

// S3ProviderConfig defines an S3 bucket provider
type S3ProviderConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region,omitempty"`

	// Endpoint overrides the AWS endpoint for S3-compatible stores
	Endpoint     string `yaml:"endpoint,omitempty"`
	UsePathStyle bool   `yaml:"usePathStyle,omitempty"`

	// AccessKeyID and SecretKeyFile configure static credentials; the default
	// AWS credential chain is used when empty
	AccessKeyID   string `yaml:"accessKeyId,omitempty"`
	SecretKeyFile string `yaml:"secretKeyFile,omitempty"`
}

// MemoryProviderConfig seeds an in-memory provider
type MemoryProviderConfig struct {
	Packages []MemoryPackage `yaml:"packages,omitempty"`
}

// MemoryPackage is a package served by a memory provider
type MemoryPackage struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Qualifier string `yaml:"qualifier,omitempty"`
	Type      string `yaml:"type"`
	Content   string `yaml:"content"`
}

// RepositoryConfig defines a repository and the providers attached to it
type RepositoryConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Providers   []string `yaml:"providers"`

	// Per-repository sync policy; repositories without a policy only sync on demand
	SyncPolicy *SyncPolicyConfig `yaml:"syncPolicy,omitempty"`
}

// SyncPolicyConfig defines synchronization settings
type SyncPolicyConfig struct {
	Interval string `yaml:"interval"`
}

// SyncConfig tunes the synchronization engine
type SyncConfig struct {
	ListTimeout      string `yaml:"listTimeout,omitempty"`
	FetchTimeout     string `yaml:"fetchTimeout,omitempty"`
	MaxAttempts      int    `yaml:"maxAttempts,omitempty"`
	InitialBackoff   string `yaml:"initialBackoff,omitempty"`
	MaxBackoff       string `yaml:"maxBackoff,omitempty"`
	FetchConcurrency int    `yaml:"fetchConcurrency,omitempty"`
	SpoolThreshold   int64  `yaml:"spoolThreshold,omitempty"`
	MaxPackageSize   int64  `yaml:"maxPackageSize,omitempty"`
	SpoolDir         string `yaml:"spoolDir,omitempty"`

	// ConcurrentRuns is either "reject" (default) or "wait"
	ConcurrentRuns  string `yaml:"concurrentRuns,omitempty"`
	LockWaitTimeout string `yaml:"lockWaitTimeout,omitempty"`

	// PollInterval is how often the coordinator looks for due repositories
	PollInterval string `yaml:"pollInterval,omitempty"`

	// RetryInterval is how long the coordinator waits before retrying a failed repository
	RetryInterval string `yaml:"retryInterval,omitempty"`
}

// BlobStoreConfig defines where fetched package content is stored
type BlobStoreConfig struct {
	Type       string                `yaml:"type"`
	Filesystem *FilesystemBlobConfig `yaml:"filesystem,omitempty"`
	Minio      *MinioBlobStoreConfig `yaml:"minio,omitempty"`
}

// FilesystemBlobConfig stores blobs below a local directory
type FilesystemBlobConfig struct {
	Path string `yaml:"path"`
}

// MinioBlobStoreConfig stores blobs in an S3-compatible bucket
type MinioBlobStoreConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region,omitempty"`
	AccessKeyID   string `yaml:"accessKeyId"`
	SecretKeyFile string `yaml:"secretKeyFile"`
	UseSSL        bool   `yaml:"useSSL,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// MigrationUser is the user running schema migrations, defaults to User
	MigrationUser string `yaml:"migrationUser,omitempty"`

	// PasswordFile is the path to a file containing the database password
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of idle connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from the THV_CONTENT_SYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		password, err := readSecretFile(d.PasswordFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return password, nil
	}

	if envPassword := os.Getenv(PasswordEnvVar); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", PasswordEnvVar,
	)
}

// GetMigrationUser returns the user that runs migrations
func (d *DatabaseConfig) GetMigrationUser() string {
	if d.MigrationUser == "" {
		return d.User
	}
	return d.MigrationUser
}

// GetConnectionString builds a PostgreSQL connection string for the application user.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	return d.connectionString(d.User)
}

// GetMigrationConnectionString builds a connection string for the migration user.
func (d *DatabaseConfig) GetMigrationConnectionString() (string, error) {
	return d.connectionString(d.GetMigrationUser())
}

func (d *DatabaseConfig) connectionString(user string) (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(user),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	), nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	data, err := readConfigFile(opts...)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func readConfigFile(opts ...Option) ([]byte, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

// Parse decodes, defaults and validates a YAML configuration document
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.BlobStore.Type == "" {
		c.BlobStore.Type = BlobStoreTypeFilesystem
	}
	if c.BlobStore.Type == BlobStoreTypeFilesystem && c.BlobStore.Filesystem == nil {
		c.BlobStore.Filesystem = &FilesystemBlobConfig{Path: filepath.Join(c.DataDir, "blobs")}
	}
	c.Sync.applyDefaults()
}

func (s *SyncConfig) applyDefaults() {
	if s.ConcurrentRuns == "" {
		s.ConcurrentRuns = ConcurrentRunReject
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = DefaultMaxAttempts
	}
	if s.FetchConcurrency == 0 {
		s.FetchConcurrency = DefaultFetchConcurrency
	}
	if s.SpoolThreshold == 0 {
		s.SpoolThreshold = DefaultSpoolThreshold
	}
	if s.MaxPackageSize == 0 {
		s.MaxPackageSize = DefaultMaxPackageSize
	}
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if len(c.Repositories) == 0 {
		return fmt.Errorf("at least one repository must be configured")
	}

	providerNames := make(map[string]bool)
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider[%d]: name is required", i)
		}
		if providerNames[p.Name] {
			return fmt.Errorf("provider[%d]: duplicate provider name '%s'", i, p.Name)
		}
		providerNames[p.Name] = true

		if err := validateProviderConfig(&p, fmt.Sprintf("provider[%d] (%s)", i, p.Name)); err != nil {
			return err
		}
	}

	repoNames := make(map[string]bool)
	for i, repo := range c.Repositories {
		if repo.Name == "" {
			return fmt.Errorf("repository[%d]: name is required", i)
		}
		if repoNames[repo.Name] {
			return fmt.Errorf("repository[%d]: duplicate repository name '%s'", i, repo.Name)
		}
		repoNames[repo.Name] = true

		if err := validateRepositoryConfig(&repo, providerNames, fmt.Sprintf("repository[%d] (%s)", i, repo.Name)); err != nil {
			return err
		}
	}

	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	if err := c.BlobStore.validate(); err != nil {
		return fmt.Errorf("blobStore: %w", err)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

func validateRepositoryConfig(repo *RepositoryConfig, providers map[string]bool, prefix string) error {
	if len(repo.Providers) == 0 {
		return fmt.Errorf("%s: at least one provider must be attached", prefix)
	}

	seen := make(map[string]bool)
	for _, name := range repo.Providers {
		if !providers[name] {
			return fmt.Errorf("%s: unknown provider '%s'", prefix, name)
		}
		if seen[name] {
			return fmt.Errorf("%s: provider '%s' attached twice", prefix, name)
		}
		seen[name] = true
	}

	if repo.SyncPolicy != nil {
		return validateSyncPolicy(repo.SyncPolicy, prefix)
	}
	return nil
}

// validateSyncPolicy validates the sync policy configuration
func validateSyncPolicy(policy *SyncPolicyConfig, prefix string) error {
	if policy.Interval == "" {
		return fmt.Errorf("%s: syncPolicy.interval is required", prefix)
	}

	if _, err := time.ParseDuration(policy.Interval); err != nil {
		return fmt.Errorf("%s: syncPolicy.interval must be a valid duration (e.g., '30m', '1h'): %w", prefix, err)
	}

	return nil
}

// validateProviderConfig ensures exactly one provider type is configured and validates it
func validateProviderConfig(p *ProviderConfig, prefix string) error {
	configCount := 0
	for _, set := range []bool{p.Filesystem != nil, p.HTTP != nil, p.Git != nil, p.S3 != nil, p.Memory != nil} {
		if set {
			configCount++
		}
	}

	if configCount == 0 {
		return fmt.Errorf("%s: one of filesystem, http, git, s3 or memory configuration must be specified", prefix)
	}
	if configCount > 1 {
		return fmt.Errorf("%s: only one of filesystem, http, git, s3 or memory configuration may be specified", prefix)
	}

	if err := validateFilterConfig(p.Filter, prefix); err != nil {
		return err
	}

	switch {
	case p.Filesystem != nil:
		if p.Filesystem.Path == "" {
			return fmt.Errorf("%s: filesystem.path is required", prefix)
		}
	case p.HTTP != nil:
		if p.HTTP.Endpoint == "" {
			return fmt.Errorf("%s: http.endpoint is required", prefix)
		}
		if _, err := url.Parse(p.HTTP.Endpoint); err != nil {
			return fmt.Errorf("%s: http.endpoint is not a valid URL: %w", prefix, err)
		}
	case p.Git != nil:
		return validateGitConfig(p.Git, prefix)
	case p.S3 != nil:
		if p.S3.Bucket == "" {
			return fmt.Errorf("%s: s3.bucket is required", prefix)
		}
	}

	return nil
}

func validateFilterConfig(f *FilterConfig, prefix string) error {
	if f == nil {
		return nil
	}
	for field, rule := range map[string]*RuleConfig{"names": f.Names, "types": f.Types} {
		if rule == nil {
			continue
		}
		if slices.Contains(rule.Include, "") || slices.Contains(rule.Exclude, "") {
			return fmt.Errorf("%s: filter.%s must not contain empty entries", prefix, field)
		}
	}
	return nil
}

// validateGitConfig validates Git-specific configuration
func validateGitConfig(git *GitProviderConfig, prefix string) error {
	if git.Repository == "" {
		return fmt.Errorf("%s: git.repository is required", prefix)
	}

	refs := 0
	for _, ref := range []string{git.Branch, git.Tag, git.Commit} {
		if ref != "" {
			refs++
		}
	}
	if refs > 1 {
		return fmt.Errorf("%s: only one of git.branch, git.tag or git.commit may be specified", prefix)
	}
	return nil
}

func (s *SyncConfig) validate() error {
	durations := map[string]string{
		"listTimeout":     s.ListTimeout,
		"fetchTimeout":    s.FetchTimeout,
		"initialBackoff":  s.InitialBackoff,
		"maxBackoff":      s.MaxBackoff,
		"lockWaitTimeout": s.LockWaitTimeout,
		"pollInterval":    s.PollInterval,
		"retryInterval":   s.RetryInterval,
	}
	for field, value := range durations {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", field, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", field)
		}
	}

	if s.MaxAttempts < 0 {
		return fmt.Errorf("maxAttempts must not be negative")
	}
	if s.FetchConcurrency < 0 {
		return fmt.Errorf("fetchConcurrency must not be negative")
	}
	if s.SpoolThreshold < 0 || s.MaxPackageSize < 0 {
		return fmt.Errorf("spoolThreshold and maxPackageSize must not be negative")
	}

	switch s.ConcurrentRuns {
	case "", ConcurrentRunReject, ConcurrentRunWait:
	default:
		return fmt.Errorf("concurrentRuns must be %q or %q, got %q", ConcurrentRunReject, ConcurrentRunWait, s.ConcurrentRuns)
	}
	return nil
}

func (b *BlobStoreConfig) validate() error {
	switch b.Type {
	case BlobStoreTypeFilesystem:
		if b.Filesystem == nil || b.Filesystem.Path == "" {
			return fmt.Errorf("filesystem.path is required")
		}
	case BlobStoreTypeMinio:
		if b.Minio == nil {
			return fmt.Errorf("minio configuration is required for type %s", BlobStoreTypeMinio)
		}
		if b.Minio.Endpoint == "" || b.Minio.Bucket == "" {
			return fmt.Errorf("minio.endpoint and minio.bucket are required")
		}
	default:
		return fmt.Errorf("unknown blob store type: %s", b.Type)
	}
	return nil
}

// GetType returns the provider type inferred from the section that is set
func (p *ProviderConfig) GetType() string {
	switch {
	case p.Filesystem != nil:
		return ProviderTypeFilesystem
	case p.HTTP != nil:
		return ProviderTypeHTTP
	case p.Git != nil:
		return ProviderTypeGit
	case p.S3 != nil:
		return ProviderTypeS3
	case p.Memory != nil:
		return ProviderTypeMemory
	}
	return ""
}

// GetSyncInterval returns the repository sync interval, zero for on-demand repositories
func (r *RepositoryConfig) GetSyncInterval() time.Duration {
	if r.SyncPolicy == nil {
		return 0
	}
	d, err := time.ParseDuration(r.SyncPolicy.Interval)
	if err != nil {
		return 0
	}
	return d
}

// GetProvider returns the provider with the given name
func (c *Config) GetProvider(name string) (*ProviderConfig, bool) {
	for i := range c.Providers {
		if c.Providers[i].Name == name {
			return &c.Providers[i], true
		}
	}
	return nil, false
}

// GetRepository returns the repository with the given name
func (c *Config) GetRepository(name string) (*RepositoryConfig, bool) {
	for i := range c.Repositories {
		if c.Repositories[i].Name == name {
			return &c.Repositories[i], true
		}
	}
	return nil, false
}

// Int64Or returns v, or def when v is not positive
func Int64Or(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}

// DurationOr parses value as a duration, returning def when empty or invalid
func DurationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// ReadSecretFile reads a credential file and trims surrounding whitespace
func ReadSecretFile(path string) (string, error) {
	return readSecretFile(path)
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
