package config

import (
	"bytes"
	_ "embed"
	"text/template"

	cmtconfig "github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/libs/os"
	"github.com/spf13/viper"
)

var appConfigTemplate *template.Template

func init() {
	var err error
	if appConfigTemplate, err = template.New("appConfigFileTemplate").Parse(defaultAppConfigTemplate); err != nil {
		panic(err)
	}
}

// WriteConfigFiles writes config.toml through CometBFT and app.toml from the embedded template.
func WriteConfigFiles(cfg *Config) error {
	cmtconfig.WriteConfigFile(cfg.ConfigFile(), cfg.Config)

	var buffer bytes.Buffer
	if err := appConfigTemplate.Execute(&buffer, cfg.App); err != nil {
		return err
	}
	return os.WriteFile(cfg.AppConfigFile(), buffer.Bytes(), 0o644)
}

// LoadConfig reads config.toml and merges app.toml on top of the defaults for home.
func LoadConfig(home string) (*Config, error) {
	cfg := NewDAOConfig(home)
	v := viper.New()
	v.SetConfigFile(cfg.ConfigFile())
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if os.FileExists(cfg.AppConfigFile()) {
		v.SetConfigFile(cfg.AppConfigFile())
		if err := v.MergeInConfig(); err != nil {
			return nil, err
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.SetRoot(cfg.RootDir)
	if err := cfg.ValidateBasic(); err != nil {
		return nil, err
	}
	cfg.App.Home = cfg.RootDir
	return cfg, nil
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in DAOAppConfig in config/config.go.
//
//go:embed app.toml.tpl
var defaultAppConfigTemplate string
