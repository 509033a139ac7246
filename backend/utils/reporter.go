package utils

import (
	"log"

	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"
)

// Reporter receives unexpected errors, those that end up as a 500.
type Reporter interface {
	Report(err error, fields map[string]interface{})
	Close()
}

type LogReporter struct {
	logger *log.Logger
}

func NewLogReporter(logger *log.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(err error, fields map[string]interface{}) {
	r.logger.Printf("ERROR %+v %v", err, fields)
}

func (r *LogReporter) Close() {}

// RollbarReporter logs the error and forwards it to Rollbar.
type RollbarReporter struct {
	logger *log.Logger
}

func NewRollbarReporter(logger *log.Logger, token, env string) *RollbarReporter {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetStackTracer(rollbarerrors.StackTracer)
	return &RollbarReporter{logger: logger}
}

func (r *RollbarReporter) Report(err error, fields map[string]interface{}) {
	r.logger.Printf("ERROR %+v %v", err, fields)
	rollbar.Error(err, fields)
}

// Close flushes pending items.
func (r *RollbarReporter) Close() {
	rollbar.Wait()
}
