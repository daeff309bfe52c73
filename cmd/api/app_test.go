package main

import (
	"context"
	"io"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type countingSyncer struct {
	io.Writer
	syncs atomic.Int32
}

func (s *countingSyncer) Sync() error {
	s.syncs.Add(1)
	return nil
}

func TestNewApp_ClosesLoggerWhenMongoIsUnreachable(t *testing.T) {
	t.Setenv("MONGO_URI", "not-a-mongo-uri")

	out := &countingSyncer{Writer: io.Discard}
	orig := newLogger
	newLogger = func(bool, string) (*zap.Logger, error) {
		core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), out, zap.DebugLevel)
		return zap.New(core), nil
	}
	t.Cleanup(func() { newLogger = orig })

	a, err := newApp(context.Background(), false, false)
	if err == nil {
		a.Close()
		t.Fatal("expected a connection error")
	}
	if got := out.syncs.Load(); got != 1 {
		t.Errorf("expected the logger to be synced once on failure, got %d", got)
	}
}

func TestNewApp_InMemory(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("AMQP_URL", "")

	a, err := newApp(context.Background(), true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()
	if a.store == nil || a.svc == nil {
		t.Fatalf("app not wired: %+v", a)
	}
}
