package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kailas-cloud/docsearch/internal/logger"
)

func newObserved(slow time.Duration) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), slow), logs
}

func stmt() (string, int64) { return "SELECT 1", 1 }

func TestTrace_Levels(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		err     error
		want    zapcore.Level
		msg     string
	}{
		{"ok", 0, nil, zapcore.DebugLevel, "Query"},
		{"slow", time.Second, nil, zapcore.WarnLevel, "Slow query"},
		{"failed", 0, errors.New("syntax error"), zapcore.ErrorLevel, "Query failed"},
		{"not found is not an error", 0, gorm.ErrRecordNotFound, zapcore.DebugLevel, "Query"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, logs := newObserved(100 * time.Millisecond)
			l.Trace(context.Background(), time.Now().Add(-tc.elapsed), stmt, tc.err)

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			if entries[0].Level != tc.want || entries[0].Message != tc.msg {
				t.Errorf("got %s %q", entries[0].Level, entries[0].Message)
			}
			if entries[0].ContextMap()["sql"] != "SELECT 1" {
				t.Errorf("missing sql field: %v", entries[0].ContextMap())
			}
		})
	}
}

func TestTrace_Silent(t *testing.T) {
	l, logs := newObserved(0)
	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), stmt, errors.New("boom"))

	if logs.Len() != 0 {
		t.Errorf("silent mode logged %d entries", logs.Len())
	}
}

func TestTrace_PrefersRequestLogger(t *testing.T) {
	l, baseLogs := newObserved(0)
	core, reqLogs := observer.New(zapcore.DebugLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	l.Trace(ctx, time.Now(), stmt, nil)

	if baseLogs.Len() != 0 || reqLogs.Len() != 1 {
		t.Errorf("base=%d request=%d", baseLogs.Len(), reqLogs.Len())
	}
}

func TestInfoWarnError(t *testing.T) {
	l, logs := newObserved(0)
	ctx := context.Background()
	l.Info(ctx, "hello %s", "gorm")
	l.Warn(ctx, "careful")
	l.Error(ctx, "broken %d", 1)

	entries := logs.All()
	if len(entries) != 3 || entries[0].Message != "hello gorm" || entries[2].Message != "broken 1" {
		t.Errorf("unexpected entries: %+v", entries)
	}

	quiet := l.LogMode(gormlogger.Error)
	quiet.Info(ctx, "dropped")
	if logs.Len() != 3 {
		t.Error("info must be dropped at error level")
	}
}
