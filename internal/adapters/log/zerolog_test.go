package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/bft-labs/caseledger/internal/ports"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(NewLogger(&buf, zerolog.DebugLevel))

	addr := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	adapter.Info("connected",
		ports.String("op", "connect"),
		ports.Int("attempt", 2),
		ports.Uint64("network_id", 31337),
		ports.Bool("loading", false),
		ports.Duration("took", 1500*time.Millisecond),
		ports.Any("account", addr),
		ports.Err(errors.New("boom")),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}

	if entry["message"] != "connected" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["op"] != "connect" {
		t.Errorf("op = %v", entry["op"])
	}
	if entry["network_id"] != float64(31337) {
		t.Errorf("network_id = %v", entry["network_id"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
	if entry["account"] != addr.Hex() {
		t.Errorf("account = %v, want %s", entry["account"], addr.Hex())
	}
}

func TestZerologAdapter_Level(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(NewLogger(&buf, zerolog.WarnLevel))

	adapter.Debug("hidden")
	adapter.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	adapter.Error("shown")
	if buf.Len() == 0 {
		t.Fatal("expected error output")
	}
}

func TestNoopLogger(t *testing.T) {
	var l ports.Logger = NewNoopLogger()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x", ports.Err(errors.New("ignored")))
}
