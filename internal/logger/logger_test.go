package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferedLogger(buf *bytes.Buffer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

// Feature: booking-core, Property 1: Checkout logs carry the client id
func TestProperty_ClientLoggerCarriesClientID(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every entry from a client-scoped logger has client_id and logger name", prop.ForAll(
		func(clientID int64, message string) bool {
			var buf bytes.Buffer
			log := ForClient(newBufferedLogger(&buf), clientID)
			log.Info(message)

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Logf("FAIL: log entry is not JSON: %v", err)
				return false
			}

			// JSON numbers decode as float64
			if entry["client_id"] != float64(clientID) {
				t.Logf("FAIL: client_id mismatch: %v", entry["client_id"])
				return false
			}
			return entry["logger"] == "checkout" && entry["message"] == message
		},
		gen.Int64Range(1, 1<<40),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: booking-core, Property 2: Error logs include the wrapped error
func TestProperty_ErrorLogsIncludeContext(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("component error logs include the error field", prop.ForAll(
		func(message string, errorMsg string) bool {
			var buf bytes.Buffer
			log := Component(newBufferedLogger(&buf), "commit")
			log.Error(message, zap.String("error", errorMsg), zap.String("collection", "payments"))

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			return entry["error"] == errorMsg && entry["collection"] == "payments" && entry["logger"] == "commit"
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNew_BuildsForEachEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development", "test"} {
		log, err := New(env)
		if err != nil {
			t.Fatalf("Failed to create logger for %s: %v", env, err)
		}
		if log == nil {
			t.Fatalf("Logger for %s should not be nil", env)
		}
		_ = log.Sync()
	}
}
