package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calehh/hac-dao/crypto"
	"github.com/cometbft/cometbft/config"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

const (
	DefaultHome          = "$HOME/.dao"
	DefaultDeployerKey   = "deployer.key"
	DefaultIndexerDB     = "data/indexer.db"
	DefaultIndexerListen = "127.0.0.1:8080"
)

// DAOAppConfig is the [app] section of app.toml.
type DAOAppConfig struct {
	Home string `mapstructure:"-"`

	Indexer         bool          `mapstructure:"indexer"`
	IndexerDB       string        `mapstructure:"indexer_db"`
	IndexerListen   string        `mapstructure:"indexer_listen"`
	IndexerInterval time.Duration `mapstructure:"indexer_interval"`
}

func NewDAOAppConfig(home string) *DAOAppConfig {
	return &DAOAppConfig{
		Home:            home,
		Indexer:         true,
		IndexerDB:       DefaultIndexerDB,
		IndexerListen:   DefaultIndexerListen,
		IndexerInterval: 2 * time.Second,
	}
}

// IndexerDBPath resolves the indexer database against the home directory.
func (c *DAOAppConfig) IndexerDBPath() string {
	if filepath.IsAbs(c.IndexerDB) {
		return c.IndexerDB
	}
	return filepath.Join(c.Home, c.IndexerDB)
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *DAOAppConfig `mapstructure:"app"`
}

func NewDAOConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv(DefaultHome)
	}
	_ = os.MkdirAll(home+"/config", 0755)
	config := &Config{
		DefaultDAOCometConfig(),
		NewDAOAppConfig(home),
	}
	config.SetRoot(home)
	return config
}

// AppConfigFile is the path of app.toml next to config.toml.
func (cfg *Config) AppConfigFile() string {
	return filepath.Join(cfg.RootDir, "config", "app.toml")
}

func (cfg *Config) ConfigFile() string {
	return filepath.Join(cfg.RootDir, "config", "config.toml")
}

func (cfg *Config) DeployerKeyFile() string {
	return filepath.Join(cfg.RootDir, "config", DefaultDeployerKey)
}

// InitializeDeployer loads the deployer account key, generating it on first use.
func InitializeDeployer(cfg *Config) (*crypto.Key, error) {
	return crypto.LoadOrGenKey(cfg.DeployerKeyFile())
}

func InitializeNodeValidatorFiles(config *Config, privKey cmtcrypto.PrivKey) (nodeID string, pk cmtcrypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultDAOCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
