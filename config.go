package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported storage drivers.
const (
	PostgresDriver = "postgres"
	BoltDBDriver   = "bolt"
	RedisDriver    = "redis"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string         `yaml:"git_commit" envconfig:"BOOKS_GIT_COMMIT"`
	GitTag                  string         `yaml:"git_tag" envconfig:"BOOKS_GIT_TAG"`
	BuildTime               string         `yaml:"build_time" envconfig:"BOOKS_BUILD_TIME"`
	IsProduction            bool           `yaml:"is_production" envconfig:"BOOKS_IS_PRODUCTION"`
	LogLevel                zapcore.Level  `yaml:"log_level" envconfig:"BOOKS_LOG_LEVEL"`
	LogFolder               string         `yaml:"log_folder" envconfig:"BOOKS_LOG_FOLDER"`
	LogMaxSize              int            `yaml:"log_max_size" envconfig:"BOOKS_LOG_MAX_SIZE"` // in megabytes
	OpsEndpointsEnable      bool           `yaml:"ops_endpoints_enable" envconfig:"BOOKS_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool           `yaml:"profiler_endpoints_enable" envconfig:"BOOKS_PROFILER_ENDPOINTS_ENABLE"`
	StorageDriver           string         `yaml:"storage_driver" envconfig:"BOOKS_STORAGE_DRIVER"`
	Server                  ServerConfig   `yaml:"server"`
	Postgres                PostgresConfig `yaml:"postgres"`
	Redis                   RedisConfig    `yaml:"redis"`
	BoltDB                  BoltDBConfig   `yaml:"boltdb"`
}

type ServerConfig struct {
	Host                    string        `yaml:"host" envconfig:"BOOKS_SERVER_HOST"`
	Port                    string        `yaml:"port" envconfig:"BOOKS_SERVER_PORT"`
	ReadTimeout             time.Duration `yaml:"read_timeout" envconfig:"BOOKS_SERVER_READ_TIMEOUT"`
	WriteTimeout            time.Duration `yaml:"write_timeout" envconfig:"BOOKS_SERVER_WRITE_TIMEOUT"`
	RequestTimeout          time.Duration `yaml:"request_timeout" envconfig:"BOOKS_SERVER_REQUEST_TIMEOUT"`
	LongRequestWriteTimeout time.Duration `yaml:"long_request_write_timeout" envconfig:"BOOKS_SERVER_LONG_REQUEST_WRITE_TIMEOUT"`
	ShutdownTimeout         time.Duration `yaml:"shutdown_timeout" envconfig:"BOOKS_SERVER_SHUTDOWN_TIMEOUT"`
}

type PostgresConfig struct {
	URL          string        `yaml:"url" envconfig:"BOOKS_POSTGRES_URL" json:"-"`
	MaxConns     int32         `yaml:"max_conns" envconfig:"BOOKS_POSTGRES_MAX_CONNS"`
	QueryTimeout time.Duration `yaml:"query_timeout" envconfig:"BOOKS_POSTGRES_QUERY_TIMEOUT"`
	Migrate      bool          `yaml:"migrate" envconfig:"BOOKS_POSTGRES_MIGRATE"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BOOKS_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BOOKS_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BOOKS_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BOOKS_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BOOKS_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BOOKS_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BOOKS_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BOOKS_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BOOKS_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BOOKS_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BOOKS_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BOOKS_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BOOKS_BOLTDB_BUCKET_NAME"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	if err = yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and overrides the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if config.Server.LongRequestWriteTimeout == 0 {
		config.Server.LongRequestWriteTimeout = config.Server.WriteTimeout
	}

	if config.StorageDriver == "" {
		config.StorageDriver = PostgresDriver
	}

	switch config.StorageDriver {
	case PostgresDriver:
		if len(config.Postgres.URL) == 0 {
			return errors.New("make sure to set a valid postgres connection url in configuration file")
		}
		if config.Postgres.QueryTimeout == 0 {
			config.Postgres.QueryTimeout = 5 * time.Second
		}
	case RedisDriver:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	case BoltDBDriver:
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("make sure to set valid boltdb file path and bucket name in configuration file")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", config.StorageDriver)
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The env file is optional.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BOOKS`.
	err = LoadConfigEnvs("BOOKS", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
