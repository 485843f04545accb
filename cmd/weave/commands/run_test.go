package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func resetCLIConfig(t *testing.T) string {
	viper.Reset()
	_config = NewDefaultCLIConfig()
	t.Cleanup(func() {
		viper.Reset()
		_config = NewDefaultCLIConfig()
	})
	return t.TempDir()
}

func TestLoadConfigLogFromEnv(t *testing.T) {
	dataDir := resetCLIConfig(t)
	logFile := filepath.Join(dataDir, "weave.log")

	t.Setenv("WEAVE_LOG", "error")
	t.Setenv("WEAVE_LOG_FILE", logFile)

	cmd := NewRunCmd()
	if err := cmd.Flags().Set("datadir", dataDir); err != nil {
		t.Fatal(err)
	}

	if err := loadConfig(cmd, nil); err != nil {
		t.Fatal(err)
	}

	logger := _config.Weave.Logger()
	if l := logger.Logger.Level; l != logrus.ErrorLevel {
		t.Fatalf("level should be error, not %v", l)
	}

	logger.Error("from env")

	if _, err := os.Stat(logFile); err != nil {
		t.Fatalf("log file should have been written: %v", err)
	}
}

func TestLoadConfigLogFromConfigFile(t *testing.T) {
	dataDir := resetCLIConfig(t)

	conf := []byte("log = \"warn\"\n")
	if err := os.WriteFile(filepath.Join(dataDir, "weave.toml"), conf, 0644); err != nil {
		t.Fatal(err)
	}

	cmd := NewRunCmd()
	if err := cmd.Flags().Set("datadir", dataDir); err != nil {
		t.Fatal(err)
	}

	if err := loadConfig(cmd, nil); err != nil {
		t.Fatal(err)
	}

	if l := _config.Weave.Logger().Logger.Level; l != logrus.WarnLevel {
		t.Fatalf("level should be warn, not %v", l)
	}
}
