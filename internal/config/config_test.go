package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "dohome") {
		t.Errorf("GetConfigDir() = %v, should contain 'dohome'", configDir)
	}

	switch runtime.GOOS {
	case "darwin", "linux":
		if os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDirHonoursXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, "dohome"); got != want {
		t.Errorf("GetConfigDir() = %q, want %q", got, want)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Discovery.Retry != 2 {
		t.Errorf("Discovery.Retry = %d, want 2", cfg.Discovery.Retry)
	}
	if cfg.Control.Timeout != 500*time.Millisecond {
		t.Errorf("Control.Timeout = %v, want 500ms", cfg.Control.Timeout)
	}
	if cfg.Discovery.BroadcastAddress != "192.168.1.255" {
		t.Errorf("Discovery.BroadcastAddress = %q, want 192.168.1.255", cfg.Discovery.BroadcastAddress)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
discovery:
  retry: 4
  window: 3s
control:
  timeout: 2s
aliases:
  DoHome_Plug_A1B2: Coffee Machine
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Discovery.Retry != 4 {
		t.Errorf("Discovery.Retry = %d, want 4", cfg.Discovery.Retry)
	}
	if cfg.Discovery.Window != 3*time.Second {
		t.Errorf("Discovery.Window = %v, want 3s", cfg.Discovery.Window)
	}
	if cfg.Control.Timeout != 2*time.Second {
		t.Errorf("Control.Timeout = %v, want 2s", cfg.Control.Timeout)
	}
	if cfg.Control.PollInterval != time.Second {
		t.Errorf("Control.PollInterval = %v, want default 1s", cfg.Control.PollInterval)
	}
	if cfg.MQTT.TopicPrefix != "dohome" {
		t.Errorf("MQTT.TopicPrefix = %q, want default dohome", cfg.MQTT.TopicPrefix)
	}
	if cfg.Aliases["DoHome_Plug_A1B2"] != "Coffee Machine" {
		t.Errorf("Aliases = %v", cfg.Aliases)
	}
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong version", "version: 7\n"},
		{"negative retry", "version: 1\ndiscovery:\n  retry: -1\n"},
		{"bad duration", "version: 1\ncontrol:\n  timeout: soon\n"},
		{"not yaml", "version: [1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() error = nil, want an error")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Discovery.OnDemandWindow = 25 * time.Second
	cfg.MQTT.Enabled = true
	cfg.SetAlias("Relay_C3D4_1", "Garden Pump")

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# DoHome Configuration File") {
		t.Error("saved file is missing the header comment")
	}
	if !strings.Contains(string(data), "on_demand_window: 25s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Discovery.OnDemandWindow != 25*time.Second {
		t.Errorf("OnDemandWindow = %v, want 25s", loaded.Discovery.OnDemandWindow)
	}
	if !loaded.MQTT.Enabled {
		t.Error("MQTT.Enabled = false, want true")
	}
	if loaded.Aliases["Relay_C3D4_1"] != "Garden Pump" {
		t.Errorf("Aliases = %v", loaded.Aliases)
	}
}

func TestCreateDefaultConfigRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if _, err := CreateDefaultConfig(path); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if _, err := CreateDefaultConfig(path); err == nil {
		t.Error("second CreateDefaultConfig() should refuse to overwrite")
	}
}

func TestSetAliasEmptyRemoves(t *testing.T) {
	cfg := Default()
	cfg.SetAlias("A", "Lamp")
	cfg.SetAlias("A", "")
	if _, ok := cfg.Aliases["A"]; ok {
		t.Error("empty alias should remove the entry")
	}
}
