package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be a no-op when no level is configured")
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !GetLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestInitializeRejectsUnknownLevel(t *testing.T) {
	if err := Initialize("verbose"); err == nil {
		t.Error("Initialize(verbose) should fail")
	}
}

func TestInitializeWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dohome.log")
	if err := InitializeWithFile("info", FileOptions{Path: path, MaxSizeMB: 1}); err != nil {
		t.Fatalf("InitializeWithFile() error = %v", err)
	}
	Info("written to file", zap.String("sid", "5F6D"))
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestLogDatagram(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogDatagram("received", "192.168.1.20:6091", []byte("cmd=pong\r\n"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["ascii"] != "cmd=pong.." {
		t.Errorf("ascii = %v, want %q", fields["ascii"], "cmd=pong..")
	}
	if fields["length"] != int64(10) {
		t.Errorf("length = %v, want 10", fields["length"])
	}
}

func TestLogRawBytes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogRawBytes("Ignoring datagram", []byte{0x01, 'o', 'k'}, zap.String("addr", "127.0.0.1:6091"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["hex"] != "016f6b" {
		t.Errorf("hex = %v, want 016f6b", fields["hex"])
	}
	if fields["ascii"] != ".ok" {
		t.Errorf("ascii = %v, want .ok", fields["ascii"])
	}
	if fields["addr"] != "127.0.0.1:6091" {
		t.Errorf("addr = %v, want the caller's field", fields["addr"])
	}
}

func TestDumpsAreCapped(t *testing.T) {
	data := make([]byte, 1024)
	if got := len(asciiDump(data)); got != maxDumpBytes {
		t.Errorf("len(asciiDump) = %d, want %d", got, maxDumpBytes)
	}
	if got := len(hexDump(data)); got != maxDumpBytes*2+3 {
		t.Errorf("len(hexDump) = %d, want %d", got, maxDumpBytes*2+3)
	}
}
