package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	rootPathEnvVar = "STAKEGOV_PATH"

	envPrefix = "STAKEGOV"

	cfgFileName = "stakegov.toml"

	defaultRepoRoot = "~/.stakegov"

	LogsDirName = "logs"

	DefaultOwnerAddr = "0x0000000000000000000000000000000000001001"
)

type Repo struct {
	Config *Config
}

// Exist reports whether something is present at path.
func Exist(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !os.IsNotExist(err)
}

// Init writes a default config into a fresh repo root.
func Init(repoRoot string) (*Repo, error) {
	if err := os.MkdirAll(repoRoot, 0755); err != nil {
		return nil, errors.Wrapf(err, "create repo root %s", repoRoot)
	}
	r := &Repo{Config: DefaultConfig(repoRoot)}
	if err := r.Flush(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads the repo config, creating a default one on first use. Values can
// be overridden with STAKEGOV_ prefixed environment variables.
func Load(repoRoot string) (*Repo, error) {
	rootPath, err := LoadRepoRootFromEnv(repoRoot)
	if err != nil {
		return nil, err
	}
	cfgPath := filepath.Join(rootPath, cfgFileName)

	if !Exist(cfgPath) {
		if _, err := Init(rootPath); err != nil {
			return nil, errors.Wrap(err, "failed to build default config")
		}
	} else if err := CheckWritable(rootPath); err != nil {
		return nil, err
	}

	cfg := DefaultConfig(rootPath)
	if err := readConfigFromFile(cfgPath, cfg); err != nil {
		return nil, errors.Wrapf(err, "read %s", cfgPath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Repo{Config: cfg}, nil
}

// Flush writes the config back to disk with environment overrides applied.
func (r *Repo) Flush() error {
	cfgPath := filepath.Join(r.Config.RepoRoot, cfgFileName)
	if err := writeConfig(cfgPath, r.Config); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	if err := readConfigFromFile(cfgPath, r.Config); err != nil {
		return errors.Wrap(err, "failed to apply environment")
	}
	if err := writeConfig(cfgPath, r.Config); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

// StoragePath is the directory holding the persisted ledger and governance state.
func (r *Repo) StoragePath() string {
	if filepath.IsAbs(r.Config.Storage.Dir) {
		return r.Config.Storage.Dir
	}
	return filepath.Join(r.Config.RepoRoot, r.Config.Storage.Dir)
}

func (r *Repo) LogsPath() string {
	return filepath.Join(r.Config.RepoRoot, LogsDirName)
}

func writeConfig(cfgPath string, config any) error {
	raw, err := MarshalConfig(config)
	if err != nil {
		return err
	}
	return os.WriteFile(cfgPath, []byte(raw), 0644)
}

func MarshalConfig(config any) (string, error) {
	buf := bytes.NewBuffer(nil)
	e := toml.NewEncoder(buf)
	e.SetIndentTables(true)
	e.SetArraysMultiline(true)
	if err := e.Encode(config); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LoadRepoRootFromEnv resolves the repo root: the explicit value, then
// STAKEGOV_PATH, then ~/.stakegov.
func LoadRepoRootFromEnv(repoRoot string) (string, error) {
	if repoRoot != "" {
		return repoRoot, nil
	}
	if repoRoot = os.Getenv(rootPathEnvVar); repoRoot != "" {
		return repoRoot, nil
	}
	return homedir.Expand(defaultRepoRoot)
}

func readConfigFromFile(cfgFilePath string, config any) error {
	vp := viper.New()
	vp.SetConfigFile(cfgFilePath)
	vp.SetConfigType("toml")
	vp.AutomaticEnv()
	vp.SetEnvPrefix(envPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := vp.ReadInConfig(); err != nil {
		return err
	}
	return vp.Unmarshal(config)
}

// CheckWritable makes sure dir exists (creating it if needed) and that the
// current user can create files in it.
func CheckWritable(dir string) error {
	_, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return os.Mkdir(dir, 0775)
	case os.IsPermission(err):
		return fmt.Errorf("cannot write to %s, incorrect permissions", dir)
	case err != nil:
		return err
	}

	probe := filepath.Join(dir, ".write-probe")
	f, err := os.Create(probe)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%s is not writeable by the current user", dir)
		}
		return fmt.Errorf("unexpected error while checking writeablility of repo root: %s", err)
	}
	f.Close()
	return os.Remove(probe)
}
