package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mosaicnetworks/weave/src/console"
	"github.com/mosaicnetworks/weave/src/net"
	"github.com/mosaicnetworks/weave/src/weave"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts the nodes of a topology
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the nodes declared in a topology file",
		PreRunE: loadConfig,
		RunE:    runWeave,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runWeave(cmd *cobra.Command, args []string) error {
	logger := _config.Weave.Logger()

	_config.Weave.OnPayload = func(nodeID uint32, from string, p net.Payload) {
		fmt.Fprintf(cmd.OutOrStdout(), "%d - message received : %s\n", nodeID, p.Text)
	}

	engine := weave.NewEngine(&_config.Weave)

	if err := engine.Init(); err != nil {
		logger.Error("Cannot initialize engine: ", err)
		engine.Shutdown()
		return err
	}
	defer engine.Shutdown()

	engine.Run()

	ctx, cancel := context.WithTimeout(context.Background(), _config.Weave.ReadyTimeout)
	defer cancel()

	if err := engine.WaitReady(ctx); err != nil {
		logger.WithError(err).Warn("Not all nodes are ready")
	}

	if _config.NoConsole {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		return nil
	}

	c := console.NewConsole(
		engine,
		cmd.InOrStdin(),
		cmd.OutOrStdout(),
		logger.WithField("prefix", "console"),
	)

	return c.Run()
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.Weave.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.Weave.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.Weave.LogFile, "Also write logs to this file")

	// Topology
	cmd.Flags().String("topology", _config.Weave.TopologyFile, "Topology declaration (<id>=<children|NO> per line)")

	// Network
	cmd.Flags().StringP("listen", "l", _config.Weave.BindHost, "Host node transports bind to, each on an ephemeral port")
	cmd.Flags().StringP("advertise", "a", _config.Weave.AdvertiseHost, "Host node transports advertise")
	cmd.Flags().Bool("inmem", _config.Weave.InmemTransport, "Use in-memory transports")
	cmd.Flags().DurationP("timeout", "t", _config.Weave.TCPTimeout, "TCP Timeout")
	cmd.Flags().Duration("ready-timeout", _config.Weave.ReadyTimeout, "Max time to wait for node discovery before accepting commands")
	cmd.Flags().Int("max-pool", _config.Weave.MaxPool, "Connection pool size max")
	cmd.Flags().Int("payload-history", _config.Weave.PayloadHistory, "Number of recent payloads each node keeps")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.Weave.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.Weave.NoService, "Disable HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Weave.Store, "Persist the topology in badgerDB")
	cmd.Flags().String("db", _config.Weave.DatabaseDir, "Dabatabase directory")

	// Console
	cmd.Flags().Bool("no-console", _config.NoConsole, "Run without the interactive console")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db or --topology, this will
	// update the defaults to be inside the new datadir
	_config.Weave.SetDataDir(_config.Weave.DataDir)

	logFields := logrus.Fields{
		"weave.DataDir":        _config.Weave.DataDir,
		"weave.TopologyFile":   _config.Weave.TopologyFile,
		"weave.BindHost":       _config.Weave.BindHost,
		"weave.AdvertiseHost":  _config.Weave.AdvertiseHost,
		"weave.InmemTransport": _config.Weave.InmemTransport,
		"weave.ServiceAddr":    _config.Weave.ServiceAddr,
		"weave.NoService":      _config.Weave.NoService,
		"weave.MaxPool":        _config.Weave.MaxPool,
		"weave.Store":          _config.Weave.Store,
		"weave.LogLevel":       _config.Weave.LogLevel,
		"weave.LogFile":        _config.Weave.LogFile,
		"weave.TCPTimeout":     _config.Weave.TCPTimeout,
		"weave.ReadyTimeout":   _config.Weave.ReadyTimeout,
		"NoConsole":            _config.NoConsole,
	}

	if _config.Weave.Store {
		logFields["weave.DatabaseDir"] = _config.Weave.DatabaseDir
	}

	_config.Weave.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// [datadir]/.env feeds the environment without overriding it
	if err := godotenv.Load(_config.Weave.EnvFile()); err == nil {
		_config.Weave.Logger().Debugf("Using env file: %s", _config.Weave.EnvFile())
	}

	// WEAVE_STORE=true, WEAVE_SERVICE_LISTEN=..., etc.
	viper.SetEnvPrefix("weave")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// look for config file in [datadir]/weave.toml (.json, .yaml also work)
	viper.SetConfigName("weave")               // name of config file (without extension)
	viper.AddConfigPath(_config.Weave.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Weave.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Weave.Logger().Debugf("No config file found in: %s", _config.Weave.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file and environment
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// log and log-file may have changed since the logger was first built
	_config.Weave.ResetLogger()

	return nil
}
