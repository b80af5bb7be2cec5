package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewTestLogger returns a silenced logger for use in tests.
func NewTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
