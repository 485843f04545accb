package commands

import (
	"github.com/mosaicnetworks/weave/src/config"
)

//CLIConfig contains configuration for the Run command
type CLIConfig struct {
	Weave config.Config `mapstructure:",squash"`

	// NoConsole disables the interactive console. The process then runs
	// until it receives SIGINT or SIGTERM.
	NoConsole bool `mapstructure:"no-console"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Weave:     *config.NewDefaultConfig(),
		NoConsole: false,
	}
}
