package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	publicHostSuffix  = "github.com"
	publicAPIHost     = "api.github.com"
	credentialDotfile = ".github_tarballs_credentials"

	// repourl path segments holding owner and repository name, counted over
	// the "/"-split of the full URL (scheme, empty, host, owner, name).
	ownerSegment = 3
	nameSegment  = 4
)

// ErrMissingOutDir signals the configuration error of running without a
// destination directory. Nothing is downloaded or rewritten when it occurs.
var ErrMissingOutDir = errors.New("no output directory given; use --outdir")

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Options are the raw CLI flag values before resolution.
type Options struct {
	RepoURL  string
	Email    string
	APIHost  string
	Package  string
	Owner    string
	RepoName string
	OutDir   string
	Verbose  bool
}

// Credential is the basic-auth pair read from the credential dotfile.
type Credential struct {
	User  string
	Token string
}

// Config holds the fully-resolved settings for one run. It is computed once
// in cmd and passed explicitly to every component; nothing reaches into
// ambient state afterwards.
type Config struct {
	RepoURL      string
	Email        string
	APIHost      string
	Package      string
	Owner        string
	RepoName     string
	OutDir       string
	Verbose      bool
	VersionRegex string
	Credential   *Credential
}

// FileConfig is the optional on-disk configuration (github-tarballs.yaml).
// Flags always win over file values.
type FileConfig struct {
	Email          string `yaml:"email"`
	APIHost        string `yaml:"api_host"`
	CredentialFile string `yaml:"credential_file"`
	VersionRegex   string `yaml:"version_regex"`
}

// Resolve merges the CLI flags with the optional config file and computes
// every default: package name from the working directory, owner/name from the
// repourl path, and the API host from the repourl host.
func Resolve(opts Options) (*Config, error) {
	if opts.OutDir == "" {
		return nil, ErrMissingOutDir
	}

	cfg := &Config{
		RepoURL:  strings.TrimSuffix(opts.RepoURL, "/"),
		Email:    opts.Email,
		APIHost:  opts.APIHost,
		Package:  opts.Package,
		Owner:    opts.Owner,
		RepoName: opts.RepoName,
		OutDir:   opts.OutDir,
		Verbose:  opts.Verbose,
	}

	credentialFile := ""
	if path, err := FindConfigFile(); err == nil {
		fileCfg, loadErr := LoadFile(path)
		if loadErr != nil {
			return nil, loadErr
		}
		logger.Debugf("Using config file: %s", path)
		if cfg.Email == "" {
			cfg.Email = fileCfg.Email
		}
		if cfg.APIHost == "" {
			cfg.APIHost = fileCfg.APIHost
		}
		cfg.VersionRegex = fileCfg.VersionRegex
		credentialFile = fileCfg.CredentialFile
	}

	if cfg.RepoURL == "" {
		return nil, errors.New("no repository URL given; use --repourl")
	}
	if cfg.Email == "" {
		return nil, errors.New("no author email given; use --email")
	}

	if cfg.Package == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		cfg.Package = filepath.Base(wd)
	}

	if err := resolveRepoPath(cfg); err != nil {
		return nil, err
	}
	if err := resolveAPIHost(cfg); err != nil {
		return nil, err
	}

	cred, err := LoadCredential(credentialFile)
	if err != nil {
		return nil, err
	}
	cfg.Credential = cred

	return cfg, nil
}

// resolveRepoPath fills Owner and RepoName from the repourl path segments
// when the flags did not set them.
func resolveRepoPath(cfg *Config) error {
	if cfg.Owner != "" && cfg.RepoName != "" {
		return nil
	}
	segments := strings.Split(cfg.RepoURL, "/")
	if len(segments) <= nameSegment {
		return fmt.Errorf(
			"cannot derive owner/name from %q; use --repo_owner and --repo_name",
			cfg.RepoURL,
		)
	}
	if cfg.Owner == "" {
		cfg.Owner = segments[ownerSegment]
	}
	if cfg.RepoName == "" {
		cfg.RepoName = segments[nameSegment]
	}
	return nil
}

// resolveAPIHost derives the API host from the repourl host when --api was
// not given. A host ending in the public-service domain maps to the public
// API host; anything else is assumed to be a self-hosted instance.
func resolveAPIHost(cfg *Config) error {
	if cfg.APIHost != "" {
		return nil
	}
	u, err := url.Parse(cfg.RepoURL)
	if err != nil {
		return fmt.Errorf("invalid repository URL %q: %w", cfg.RepoURL, err)
	}
	host := u.Hostname()
	if strings.HasSuffix(host, publicHostSuffix) {
		host = publicAPIHost
	}
	cfg.APIHost = host
	return nil
}

// FindConfigFile searches the standard locations for a configuration file.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{"."}
	if homeDir != "" {
		locations = append(locations, homeDir, filepath.Join(homeDir, ".config"))
	}

	patterns := []string{
		"github-tarballs.yaml",
		"github-tarballs.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// LoadFile reads and parses a configuration file, expanding environment
// variables in the credential file path.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg FileConfig
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.CredentialFile = expandEnv(cfg.CredentialFile)
	return &cfg, nil
}

// expandEnv expands ${ENV_VAR} references.
func expandEnv(raw string) string {
	if raw == "" {
		return raw
	}
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})
}

// LoadCredential reads the basic-auth dotfile: a single `user:token` line.
// An empty path falls back to the dotfile in the user's home directory. A
// missing file is not an error — requests simply run unauthenticated, under
// the stricter public rate limits.
func LoadCredential(path string) (*Credential, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, nil //nolint:nilnil // no home directory, no credential
		}
		path = filepath.Join(homeDir, credentialDotfile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debugf("No credential file at %s, using unauthenticated requests", path)
			return nil, nil //nolint:nilnil // absent credential is a valid state
		}
		return nil, fmt.Errorf("failed to read credential file %q: %w", path, err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
	user, token, found := strings.Cut(line, ":")
	if !found || user == "" {
		return nil, fmt.Errorf("credential file %q must hold a single user:token line", path)
	}
	return &Credential{User: user, Token: token}, nil
}
