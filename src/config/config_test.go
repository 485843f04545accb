package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetDataDir(t *testing.T) {
	conf := NewDefaultConfig()
	conf.SetDataDir("/tmp/weave")

	if conf.DatabaseDir != filepath.Join("/tmp/weave", DefaultBadgerFile) {
		t.Fatalf("DatabaseDir should follow DataDir: %s", conf.DatabaseDir)
	}
	if conf.TopologyFile != filepath.Join("/tmp/weave", DefaultTopologyFile) {
		t.Fatalf("TopologyFile should follow DataDir: %s", conf.TopologyFile)
	}

	conf = NewDefaultConfig()
	conf.TopologyFile = "/etc/graph.properties"
	conf.SetDataDir("/tmp/weave")

	if conf.TopologyFile != "/etc/graph.properties" {
		t.Fatalf("explicit TopologyFile should not change: %s", conf.TopologyFile)
	}
}

func TestAddrs(t *testing.T) {
	conf := NewDefaultConfig()

	if a := conf.BindAddr(); a != "127.0.0.1:0" {
		t.Fatalf("BindAddr should be 127.0.0.1:0, not %s", a)
	}
	if a := conf.AdvertiseAddr(); a != "" {
		t.Fatalf("AdvertiseAddr should be empty, not %s", a)
	}

	conf.AdvertiseHost = "10.0.0.1"
	if a := conf.AdvertiseAddr(); a != "10.0.0.1:0" {
		t.Fatalf("AdvertiseAddr should be 10.0.0.1:0, not %s", a)
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"bogus": logrus.DebugLevel,
	}
	for s, l := range cases {
		if LogLevel(s) != l {
			t.Fatalf("LogLevel(%s) should be %v, not %v", s, l, LogLevel(s))
		}
	}
}

func TestLogFile(t *testing.T) {
	conf := NewDefaultConfig()
	conf.LogLevel = "info"
	conf.LogFile = filepath.Join(t.TempDir(), "weave.log")

	conf.Logger().Info("written to file")

	data, err := os.ReadFile(conf.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Fatalf("log file should contain the entry: %s", data)
	}
}

func TestResetLogger(t *testing.T) {
	conf := NewDefaultConfig()

	if l := conf.Logger().Logger.Level; l != logrus.DebugLevel {
		t.Fatalf("level should be debug, not %v", l)
	}

	conf.LogLevel = "error"
	if l := conf.Logger().Logger.Level; l != logrus.DebugLevel {
		t.Fatalf("cached logger should keep debug, not %v", l)
	}

	conf.ResetLogger()
	if l := conf.Logger().Logger.Level; l != logrus.ErrorLevel {
		t.Fatalf("level should be error after reset, not %v", l)
	}
}
