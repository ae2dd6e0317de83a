package config

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/OpenPeeDeeP/xdg"
	"github.com/imdario/mergo"
	yaml "github.com/jesseduffield/yaml"
)

// AppConfig contains the base configuration fields required by the kernel
// simulator binary.
type AppConfig struct {
	Debug       bool   `long:"debug" env:"DEBUG" default:"false"`
	Version     string `long:"version" env:"VERSION" default:"unversioned"`
	Commit      string `long:"commit" env:"COMMIT"`
	BuildDate   string `long:"build-date" env:"BUILD_DATE"`
	Name        string `long:"name" env:"NAME" default:"riscvkern"`
	BuildSource string `long:"build-source" env:"BUILD_SOURCE" default:""`
	UserConfig  *UserConfig
	ConfigDir   string
}

// NewAppConfig bootstraps the app config: locates (or creates) the config
// directory, loads config.yml over the hard-coded defaults, and validates
// the merged result.
func NewAppConfig(name, version, commit, date, buildSource string, debuggingFlag bool) (*AppConfig, error) {
	configDir, err := findOrCreateConfigDir(name)
	if err != nil {
		return nil, err
	}

	userConfig, err := loadUserConfigWithDefaults(configDir)
	if err != nil {
		return nil, err
	}

	if err := userConfig.Validate(); err != nil {
		return nil, err
	}

	appConfig := &AppConfig{
		Name:        name,
		Version:     version,
		Commit:      commit,
		BuildDate:   date,
		Debug:       debuggingFlag || os.Getenv("DEBUG") == "TRUE",
		BuildSource: buildSource,
		UserConfig:  userConfig,
		ConfigDir:   configDir,
	}

	return appConfig, nil
}

func configDir(projectName string) string {
	if envConfigDir := os.Getenv("CONFIG_DIR"); envConfigDir != "" {
		return envConfigDir
	}
	return xdg.New("", projectName).ConfigHome()
}

func findOrCreateConfigDir(projectName string) (string, error) {
	folder := configDir(projectName)

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", err
	}

	return folder, nil
}

func loadUserConfigWithDefaults(configDir string) (*UserConfig, error) {
	defaults := GetDefaultConfig()
	return loadUserConfig(configDir, &defaults)
}

// loadUserConfig reads config.yml (creating it empty if absent), unmarshals
// it, fills any zero-valued field left behind from GetDefaultConfig with
// mergo so that a config.yml which only overrides one field doesn't blank
// the rest, and stores the result in base. The prior contents of base are
// not consulted.
func loadUserConfig(configDir string, base *UserConfig) (*UserConfig, error) {
	fileName := filepath.Join(configDir, "config.yml")

	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			file, err := os.Create(fileName)
			if err != nil {
				return nil, err
			}
			file.Close()
		} else {
			return nil, err
		}
	}

	content, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	defaults := GetDefaultConfig()
	overrides := UserConfig{}
	if err := yaml.Unmarshal(content, &overrides); err != nil {
		return nil, err
	}

	if err := mergo.Merge(&overrides, defaults); err != nil {
		return nil, err
	}

	*base = overrides
	return base, nil
}

// WriteToUserConfig allows setting a value on the user config to be saved.
// Note that if you set a zero-value, it may be ignored (omitempty).
func (c *AppConfig) WriteToUserConfig(updateConfig func(*UserConfig) error) error {
	userConfig, err := loadUserConfig(c.ConfigDir, &UserConfig{})
	if err != nil {
		return err
	}

	if err := updateConfig(userConfig); err != nil {
		return err
	}

	file, err := os.OpenFile(c.ConfigFilename(), os.O_WRONLY|os.O_CREATE, 0o666)
	if err != nil {
		return err
	}
	defer file.Close()

	return yaml.NewEncoder(file).Encode(userConfig)
}

// ConfigFilename returns the filename of the current config file.
func (c *AppConfig) ConfigFilename() string {
	return filepath.Join(c.ConfigDir, "config.yml")
}
