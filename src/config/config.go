package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mosaicnetworks/weave/src/common"
	"github.com/mosaicnetworks/weave/src/net"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultTopologyFile is the default name of the topology declaration
	DefaultTopologyFile = "topology.properties"

	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"

	// DefaultEnvFile is the name of the optional dotenv file in the data
	// directory
	DefaultEnvFile = ".env"
)

// Default configuration values.
const (
	DefaultLogLevel       = "debug"
	DefaultBindHost       = "127.0.0.1"
	DefaultServiceAddr    = "127.0.0.1:8000"
	DefaultTCPTimeout     = 1000 * time.Millisecond
	DefaultReadyTimeout   = 5000 * time.Millisecond
	DefaultMaxPool        = 2
	DefaultPayloadHistory = 10
	DefaultStore          = false
	DefaultInmem          = false
	DefaultNoService      = false
)

// PayloadHandler is called for every payload delivered to a node.
type PayloadHandler func(nodeID uint32, from string, payload net.Payload)

// Config contains all the configuration properties of a weave process.
type Config struct {
	// DataDir is the top-level directory containing weave configuration and
	// data
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, if set, receives a copy of every log entry.
	LogFile string `mapstructure:"log-file"`

	// TopologyFile is the declaration of the nodes to start, one
	// `<id>=<children>` line per node. Defaults to topology.properties in
	// DataDir.
	TopologyFile string `mapstructure:"topology"`

	// BindHost is the host every node transport binds to. Each node gets its
	// own ephemeral port.
	BindHost string `mapstructure:"listen"`

	// AdvertiseHost is used to change the host that nodes advertise to the
	// cluster, when BindHost is not routable (ex 0.0.0.0).
	AdvertiseHost string `mapstructure:"advertise"`

	// InmemTransport replaces TCP transports with in-memory ones.
	InmemTransport bool `mapstructure:"inmem"`

	// MaxPool controls how many connections are pooled per target.
	MaxPool int `mapstructure:"max-pool"`

	// TCPTimeout is the timeout of transport connections. It also bounds
	// node queries.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// ReadyTimeout bounds the time spent waiting for every node to process
	// its first membership snapshot.
	ReadyTimeout time.Duration `mapstructure:"ready-timeout"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the optional HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// Store activates persistent storage of the declared topology.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// PayloadHistory is the number of recent payloads each node keeps.
	PayloadHistory int `mapstructure:"payload-history"`

	// OnPayload is called by nodes for every payload they receive.
	OnPayload PayloadHandler

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:        DefaultDataDir(),
		LogLevel:       DefaultLogLevel,
		TopologyFile:   DefaultTopologyFilePath(),
		BindHost:       DefaultBindHost,
		ServiceAddr:    DefaultServiceAddr,
		InmemTransport: DefaultInmem,
		MaxPool:        DefaultMaxPool,
		TCPTimeout:     DefaultTCPTimeout,
		ReadyTimeout:   DefaultReadyTimeout,
		NoService:      DefaultNoService,
		Store:          DefaultStore,
		DatabaseDir:    DefaultDatabaseDir(),
		PayloadHistory: DefaultPayloadHistory,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.NoService = true
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level weave directory, and updates the database
// directory and the topology file if they are currently set to their default
// values. If they are not the default, the user has explicitly set them to
// something else, so avoid changing them again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
	if c.TopologyFile == DefaultTopologyFilePath() {
		c.TopologyFile = filepath.Join(dataDir, DefaultTopologyFile)
	}
}

// EnvFile returns the full path of the optional dotenv file.
func (c *Config) EnvFile() string {
	return filepath.Join(c.DataDir, DefaultEnvFile)
}

// BindAddr returns the address a new node transport binds to: BindHost with
// an ephemeral port.
func (c *Config) BindAddr() string {
	return c.BindHost + ":0"
}

// AdvertiseAddr returns the address a new node transport advertises, or an
// empty string to advertise the bound address.
func (c *Config) AdvertiseAddr() string {
	if c.AdvertiseHost == "" {
		return ""
	}
	return c.AdvertiseHost + ":0"
}

// Logger returns a formatted logrus Entry, with prefix set to "weave".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
		if c.LogFile != "" {
			c.logger.AddHook(lfshook.NewHook(
				lfshook.PathMap{
					logrus.DebugLevel: c.LogFile,
					logrus.InfoLevel:  c.LogFile,
					logrus.WarnLevel:  c.LogFile,
					logrus.ErrorLevel: c.LogFile,
					logrus.FatalLevel: c.LogFile,
					logrus.PanicLevel: c.LogFile,
				},
				&logrus.TextFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "weave")
}

// ResetLogger drops the logger built by a previous call to Logger, so that the
// next call picks up the current LogLevel and LogFile.
func (c *Config) ResetLogger() {
	c.logger = nil
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultTopologyFilePath returns the default path of the topology file.
func DefaultTopologyFilePath() string {
	return filepath.Join(DefaultDataDir(), DefaultTopologyFile)
}

// DefaultDataDir return the default directory name for top-level weave config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Weave")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Weave")
		} else {
			return filepath.Join(home, ".weave")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
