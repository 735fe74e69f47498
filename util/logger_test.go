package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLogLevel(t *testing.T) {
	tcs := []struct {
		value string
		want  zapcore.Level
	}{
		{value: "", want: zapcore.InfoLevel},
		{value: "-1", want: zapcore.DebugLevel},
		{value: "1", want: zapcore.WarnLevel},
		{value: "debug", want: zapcore.DebugLevel},
		{value: "ERROR", want: zapcore.ErrorLevel},
		{value: "verbose", want: zapcore.InfoLevel},
	}
	for _, tc := range tcs {
		t.Run(tc.value, func(t *testing.T) {
			assert.Equal(t, tc.want, logLevel(tc.value))
		})
	}
}
