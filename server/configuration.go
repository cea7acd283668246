package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-while/nodare-hashing/database"
	"github.com/go-while/nodare-hashing/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type VConfig interface {
	Get(key string) interface{}
	GetString(key string) string
	GetInt(key string) int
	GetFloat64(key string) float64
	GetBool(key string) bool
	IsSet(key string) bool
}

type ViperConfig struct {
	viper            *viper.Viper
	logs             ilog.ILOG
	mapsEnvsToConfig map[string]string
}

func (c *ViperConfig) checkFileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !errors.Is(err, os.ErrNotExist)
}

func (c *ViperConfig) setDefaults() {
	c.viper.SetDefault(VK_LOG_LOGLEVEL, DEFAULT_LOGLEVEL_STR)
	c.viper.SetDefault(VK_LOG_LOGFILE, DEFAULT_LOGS_FILE)

	c.viper.SetDefault(VK_SETTINGS_BACKEND, DEFAULT_BACKEND)
	c.viper.SetDefault(VK_SETTINGS_CAPACITY, DEFAULT_CAPACITY)
	c.viper.SetDefault(VK_SETTINGS_THRESHOLD, DEFAULT_THRESHOLD)
	c.viper.SetDefault(VK_SETTINGS_HASHMODE, DEFAULT_HASHMODE)
	c.viper.SetDefault(VK_SETTINGS_WATCHDOG, V_DEFAULT_WATCHDOG_SECONDS)

	c.viper.SetDefault(VK_SEC_TLS_ENABLED, V_DEFAULT_TLS_ENABLED)
	// /etc/letsencrypt/live/(sub.)domain.com/privkey.pem
	c.viper.SetDefault(VK_SEC_TLS_PRIVKEY, filepath.Join(CONFIG_DIR, DEFAULT_TLS_PRIVKEY))
	// /etc/letsencrypt/live/(sub.)domain.com/fullchain.pem
	c.viper.SetDefault(VK_SEC_TLS_PUBCERT, filepath.Join(CONFIG_DIR, DEFAULT_TLS_PUBCERT))

	c.viper.SetDefault(VK_NET_WEBSRV_READ_TIMEOUT, V_DEFAULT_NET_WEBSRV_READ_TIMEOUT)
	c.viper.SetDefault(VK_NET_WEBSRV_WRITE_TIMEOUT, V_DEFAULT_NET_WEBSRV_WRITE_TIMEOUT)
	c.viper.SetDefault(VK_NET_WEBSRV_IDLE_TIMEOUT, V_DEFAULT_NET_WEBSRV_IDLE_TIMEOUT)

	c.viper.SetDefault(VK_SERVER_HOST, DEFAULT_SERVER_ADDR)
	c.viper.SetDefault(VK_SERVER_PORT_TCP, DEFAULT_SERVER_TCP_PORT)
	c.viper.SetDefault(VK_SERVER_SOCKET_PATH, DEFAULT_SERVER_SOCKET_PATH)
	c.viper.SetDefault(VK_SERVER_SOCKET_PORT_TCP, DEFAULT_SERVER_SOCKET_TCP_PORT)
	c.viper.SetDefault(VK_SERVER_SOCKET_PORT_TLS, DEFAULT_SERVER_SOCKET_TLS_PORT)
	c.viper.SetDefault(VK_SERVER_SOCKET_ACL, V_DEFAULT_SERVER_SOCKET_ACL)
} // end func setDefaults

func (c *ViperConfig) createDefaultConfigFile(cfgFile string) error {
	c.logs.Info("Creating default config file: %s", cfgFile)
	if dir := filepath.Dir(cfgFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return c.viper.WriteConfigAs(cfgFile)
}

func (c *ViperConfig) mapEnvsToConf() {
	c.mapsEnvsToConfig[VK_LOG_LOGLEVEL] = ENVK_LOGLEVEL
	c.mapsEnvsToConfig[VK_LOG_LOGFILE] = ENVK_LOGSFILE

	c.mapsEnvsToConfig[VK_SETTINGS_BACKEND] = ENVK_NDB_BACKEND
	c.mapsEnvsToConfig[VK_SETTINGS_CAPACITY] = ENVK_NDB_CAPACITY
	c.mapsEnvsToConfig[VK_SETTINGS_THRESHOLD] = ENVK_NDB_THRESHOLD
	c.mapsEnvsToConfig[VK_SETTINGS_HASHMODE] = ENVK_NDB_HASHMODE
	c.mapsEnvsToConfig[VK_SETTINGS_WATCHDOG] = ENVK_NDB_WATCHDOG

	c.mapsEnvsToConfig[VK_SEC_TLS_ENABLED] = ENVK_NDB_TLS_ENABLED
	c.mapsEnvsToConfig[VK_SEC_TLS_PRIVKEY] = ENVK_NDB_TLS_PRIVKEY
	c.mapsEnvsToConfig[VK_SEC_TLS_PUBCERT] = ENVK_NDB_TLS_PUBCERT

	c.mapsEnvsToConfig[VK_NET_WEBSRV_READ_TIMEOUT] = ENVK_NDB_WEBSRV_READ_TIMEOUT
	c.mapsEnvsToConfig[VK_NET_WEBSRV_WRITE_TIMEOUT] = ENVK_NDB_WEBSRV_WRITE_TIMEOUT
	c.mapsEnvsToConfig[VK_NET_WEBSRV_IDLE_TIMEOUT] = ENVK_NDB_WEBSRV_IDLE_TIMEOUT

	c.mapsEnvsToConfig[VK_SERVER_HOST] = ENVK_NDB_HOST
	c.mapsEnvsToConfig[VK_SERVER_PORT_TCP] = ENVK_NDB_PORT
	c.mapsEnvsToConfig[VK_SERVER_SOCKET_PATH] = ENVK_NDB_SERVER_SOCKET_PATH
	c.mapsEnvsToConfig[VK_SERVER_SOCKET_PORT_TCP] = ENVK_NDB_SERVER_SOCKET_TCP_PORT
	c.mapsEnvsToConfig[VK_SERVER_SOCKET_PORT_TLS] = ENVK_NDB_SERVER_SOCKET_TLS_PORT
	c.mapsEnvsToConfig[VK_SERVER_SOCKET_ACL] = ENVK_NDB_SERVER_SOCKET_ACL
} // end func mapEnvsToConf

// ReadConfigsFromEnvs loads envFile (if present) into the environment
// and lets every mapped env var override its config key.
func (c *ViperConfig) ReadConfigsFromEnvs(envFile string) {
	if envFile != "" && c.checkFileExists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			c.logs.Warn("godotenv.Load file='%s' err='%v'", envFile, err)
		} else {
			c.logs.Info("Loaded env vars from '%s'", envFile)
		}
	}
	for key, env := range c.mapsEnvsToConfig {
		if valueFromEnv, ok := os.LookupEnv(env); ok {
			c.logs.Debug("GOT ENV key='%s' env='%s' valueFromEnv='%s'", key, env, valueFromEnv)
			c.viper.Set(key, valueFromEnv)
		}
	}
}

// DBOptions validates the settings.* keys.
func (c *ViperConfig) DBOptions() (opts database.DBOptions, err error) {
	backend, err := database.ParseBackend(strings.TrimSpace(c.viper.GetString(VK_SETTINGS_BACKEND)))
	if err != nil {
		return opts, err
	}
	opts = database.DBOptions{
		Backend:   backend,
		Capacity:  c.viper.GetInt(VK_SETTINGS_CAPACITY),
		Threshold: c.viper.GetFloat64(VK_SETTINGS_THRESHOLD),
		HashMode:  c.viper.GetInt(VK_SETTINGS_HASHMODE),
	}
	if opts.Capacity < 0 {
		return opts, fmt.Errorf("%w: %s=%d", database.ErrInvalidArgument, VK_SETTINGS_CAPACITY, opts.Capacity)
	}
	if _, ok := database.HASHMODES[opts.HashMode]; !ok {
		return opts, fmt.Errorf("%w: %s=%d", database.ErrInvalidArgument, VK_SETTINGS_HASHMODE, opts.HashMode)
	}
	return opts, nil
} // end func DBOptions

func (c *ViperConfig) PrintConfigsToConsole() {
	keys := make([]string, 0, len(c.mapsEnvsToConfig))
	for key := range c.mapsEnvsToConfig {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		c.logs.Debug("Config value '%s': '%v'", key, c.viper.Get(key))
	}
}

// NewViperConf reads cfgFile, creating it with defaults if missing,
// and applies env overrides from envFile and the environment.
func NewViperConf(cfgFile string, envFile string, logs ilog.ILOG) (VConfig, database.DBOptions, error) {
	if len(strings.TrimSpace(cfgFile)) == 0 {
		logs.Info("No config file was supplied. Using default: %s", DEFAULT_CONFIG_FILE)
		cfgFile = DEFAULT_CONFIG_FILE
	}

	c := &ViperConfig{viper: viper.New(), logs: logs, mapsEnvsToConfig: make(map[string]string, 32)}
	c.viper.SetConfigType("toml")
	c.mapEnvsToConf()
	c.setDefaults()

	if !c.checkFileExists(cfgFile) {
		logs.Info("Configuration file does not exist: %s", cfgFile)
		if err := c.createDefaultConfigFile(cfgFile); err != nil {
			return nil, database.DBOptions{}, fmt.Errorf("create config '%s': %w", cfgFile, err)
		}
	}

	logs.Info("Using config file: %s", cfgFile)
	c.viper.SetConfigFile(cfgFile)
	if err := c.viper.ReadInConfig(); err != nil {
		return nil, database.DBOptions{}, fmt.Errorf("read config '%s': %w", cfgFile, err)
	}

	c.ReadConfigsFromEnvs(envFile)
	opts, err := c.DBOptions()
	if err != nil {
		return nil, opts, err
	}
	c.PrintConfigsToConsole()
	return c.viper, opts, nil
} // end func NewViperConf

type logfileSetter interface {
	SetLogfile(logfile string) error
}

// ApplyLogfile opens the configured log.logfile unless
// the -logfile flag already chose one.
func ApplyLogfile(vcfg VConfig, logs logfileSetter, flagLogfile string) error {
	if flagLogfile != "" {
		return nil
	}
	return logs.SetLogfile(vcfg.GetString(VK_LOG_LOGFILE))
}
