package config

import (
	"fmt"
	"os"

	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Logging       LoggingConfig  `yaml:"logging"`
	Debug         DebugConfig    `yaml:"debug"`
	Storage       StorageConfig  `yaml:"storage"`
	Indexer       IndexerConfig  `yaml:"indexer"`
	ScoopLog      ScoopLogConfig `yaml:"scoopLog"`
	Network       string         `yaml:"network" envconfig:"NETWORK"`
	ListenAddress string         `yaml:"listenAddress" envconfig:"LISTEN_ADDRESS"`
	ListenPort    uint           `yaml:"port" envconfig:"PORT"`
	NetworkMagic  uint32
}

// ScoopLogConfig controls the scoop-log consumer's coalescing window and
// output directory.
type ScoopLogConfig struct {
	Directory      string `yaml:"dir" envconfig:"SCOOPLOG_DIR"`
	CoalesceMillis uint   `yaml:"coalesceMillis" envconfig:"SCOOPLOG_COALESCE_MILLIS"`
}

type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LOGGING_LEVEL"`
}

type DebugConfig struct {
	ListenAddress string `yaml:"address" envconfig:"DEBUG_ADDRESS"`
	ListenPort    uint   `yaml:"port" envconfig:"DEBUG_PORT"`
}

type IndexerConfig struct {
	Address       string `yaml:"address"       envconfig:"INDEXER_TCP_ADDRESS"`
	SocketPath    string `yaml:"socketPath"    envconfig:"INDEXER_SOCKET_PATH"`
	RollbackLimit uint64 `yaml:"rollbackLimit" envconfig:"INDEXER_ROLLBACK_LIMIT"`
}

type StorageConfig struct {
	Directory string `yaml:"dir" envconfig:"STORAGE_DIR"`
}

// Singleton config instance with default values
var globalConfig = &Config{
	Network:    "mainnet",
	ListenPort: 3000,
	Logging: LoggingConfig{
		Level: "info",
	},
	Debug: DebugConfig{
		ListenAddress: "localhost",
		ListenPort:    0,
	},
	Indexer: IndexerConfig{
		RollbackLimit: 2160,
	},
	Storage: StorageConfig{
		Directory: "./.sundaescoop",
	},
	ScoopLog: ScoopLogConfig{
		Directory:      "./logs",
		CoalesceMillis: 250,
	},
}

func Load(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %s", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %s", err)
		}
	}
	// Load config values from environment variables
	// We use "dummy" as the app name here to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %s", err)
	}
	// Populate network magic from network name
	network := ouroboros.NetworkByName(globalConfig.Network)
	if network == ouroboros.NetworkInvalid {
		return nil, fmt.Errorf("unknown network name: %s", globalConfig.Network)
	}
	globalConfig.NetworkMagic = network.NetworkMagic
	return globalConfig, nil
}

// Return global config instance
func GetConfig() *Config {
	return globalConfig
}
