package node

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/weave/src/common"
	"github.com/mosaicnetworks/weave/src/net"
	"github.com/sirupsen/logrus"
)

// PayloadHandler is called by a node, from its own goroutine, for every
// payload it receives.
type PayloadHandler func(nodeID uint32, from string, payload net.Payload)

// Config ...
type Config struct {
	// QueryTimeout bounds the time Info waits for the node loop.
	QueryTimeout time.Duration `mapstructure:"timeout"`
	// PayloadHistory is the number of recent payloads kept for Info.
	PayloadHistory int `mapstructure:"payload-history"`
	// OnPayload is optional.
	OnPayload PayloadHandler
	Logger    *logrus.Logger
}

// NewConfig ...
func NewConfig(queryTimeout time.Duration,
	payloadHistory int,
	onPayload PayloadHandler,
	logger *logrus.Logger) *Config {

	return &Config{
		QueryTimeout:   queryTimeout,
		PayloadHistory: payloadHistory,
		OnPayload:      onPayload,
		Logger:         logger,
	}
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		QueryTimeout:   1000 * time.Millisecond,
		PayloadHistory: 10,
		Logger:         logger,
	}
}

// TestConfig ...
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Logger = common.NewTestLogger(t, common.TestLogLevel)
	return config
}
