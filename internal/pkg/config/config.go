package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for our program, parsed from various sources
// The `mapstructure` tags are used to map the fields to the viper configuration
type Config struct {
	Job     string `mapstructure:"job"`
	JobPath string

	// Pipeline
	WorkersCount        int    `mapstructure:"workers"`
	Command             string `mapstructure:"command"`
	MaxStages           int    `mapstructure:"max-stages"`
	InputFile           string `mapstructure:"input"`
	OutputFile          string `mapstructure:"output"`
	InputPolicy         string `mapstructure:"input-policy"`
	ExitPolicy          string `mapstructure:"exit-policy"`
	CollectorBufferSize int    `mapstructure:"collector-buffer-size"`

	// Logging
	NoStderrLogging  bool   `mapstructure:"no-stderr-log"`
	NoFileLogging    bool   `mapstructure:"no-log-file"`
	NoColorLogging   bool   `mapstructure:"no-color-log"`
	LogLevel         string `mapstructure:"log-level"`
	LogFileLevel     string `mapstructure:"log-file-level"`
	LogFileOutputDir string `mapstructure:"log-file-output-dir"`
	LogFilePrefix    string `mapstructure:"log-file-prefix"`
	LogFileRotation  string `mapstructure:"log-file-rotation"`
	LiveStats        bool   `mapstructure:"live-stats"`

	// API
	APIPort int  `mapstructure:"api-port"`
	API     bool `mapstructure:"api"`

	// Prometheus and metrics
	Prometheus       bool   `mapstructure:"prometheus"`
	PrometheusPrefix string `mapstructure:"prometheus-prefix"`
}

var (
	config *Config
	once   sync.Once
)

// InitConfig initializes the configuration
// Flags -> Env -> Config file
// Latest has precedence over the rest
func InitConfig() error {
	var err error
	once.Do(func() {
		config = &Config{}

		// Check if a config file is provided via flag
		if configFile := viper.GetString("config-file"); configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			if home, homeErr := os.UserHomeDir(); homeErr == nil {
				viper.AddConfigPath(home)
			}
			viper.SetConfigType("yaml")
			viper.SetConfigName("parapipe-config")
		}

		viper.SetEnvPrefix("PARAPIPE")
		replacer := strings.NewReplacer("-", "_", ".", "_")
		viper.SetEnvKeyReplacer(replacer)
		viper.AutomaticEnv()

		if readErr := viper.ReadInConfig(); readErr == nil {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}

		setDefaults()

		// This function is used to bring logic to the flags when needed (e.g. live-stats)
		handleFlagsEdgeCases()

		// Unmarshal the config into the Config struct
		err = viper.Unmarshal(config)
	})
	return err
}

// BindFlags binds the flags to the viper configuration
// This is needed because viper doesn't support same flag name accross multiple commands
// Details here: https://github.com/spf13/viper/issues/375#issuecomment-794668149
func BindFlags(flagSet *pflag.FlagSet) {
	flagSet.VisitAll(func(flag *pflag.Flag) {
		viper.BindPFlag(flag.Name, flag)
	})
}

// Get returns the config struct
func Get() *Config {
	return config
}

// GenerateRunConfig fills the derived fields and validates what the
// orchestrator needs before any worker is started.
func GenerateRunConfig() error {
	// If the job name isn't specified, we generate a random name
	if config.Job == "" {
		UUID, err := uuid.NewUUID()
		if err != nil {
			return fmt.Errorf("generate job name: %w", err)
		}
		config.Job = UUID.String()
	}

	config.JobPath = path.Join("jobs", config.Job)

	if config.WorkersCount < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, config.WorkersCount)
	}

	if strings.TrimSpace(config.Command) == "" {
		return fmt.Errorf("%w: no pipeline command given", ErrInvalidConfig)
	}

	if config.CollectorBufferSize <= 0 {
		return fmt.Errorf("%w: collector-buffer-size must be > 0", ErrInvalidConfig)
	}

	return nil
}

// setDefaults registers the values used when a key comes neither from a
// flag, the environment nor a config file (e.g. outside of the CLI).
func setDefaults() {
	viper.SetDefault("workers", 1)
	viper.SetDefault("max-stages", 32)
	viper.SetDefault("input-policy", "race")
	viper.SetDefault("exit-policy", "orchestration")
	viper.SetDefault("collector-buffer-size", 32*1024)
	viper.SetDefault("no-log-file", true)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-file-level", "info")
	viper.SetDefault("log-file-prefix", "parapipe")
	viper.SetDefault("log-file-rotation", "6h")
	viper.SetDefault("api-port", 9443)
	viper.SetDefault("prometheus-prefix", "parapipe_")
}

func handleFlagsEdgeCases() {
	if viper.GetBool("live-stats") {
		// Live stats own the terminal, console logging would garble them
		viper.Set("no-stderr-log", true)
	}

	if viper.GetBool("prometheus") {
		// The metrics are exposed by the API server
		viper.Set("api", true)
	}
}

// reset drops the loaded configuration, only used by tests
func reset() {
	viper.Reset()
	config = nil
	once = sync.Once{}
}
