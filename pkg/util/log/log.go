package log

import (
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
)

// Logger is a shared go-kit logger.
var Logger = log.NewNopLogger()

// InitLogger initialises the global Logger to write to w in the given format
// ("logfmt" or "json"), dropping entries below lvl. It returns the logger.
func InitLogger(w io.Writer, format string, lvl dslog.Level) (log.Logger, error) {
	logger, err := newLogger(w, format)
	if err != nil {
		return nil, err
	}
	logger = level.NewFilter(logger, lvl.Option)
	Logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return Logger, nil
}

func newLogger(w io.Writer, format string) (log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	w = log.NewSyncWriter(w)

	switch format {
	case "", "logfmt":
		return log.NewLogfmtLogger(w), nil
	case "json":
		return log.NewJSONLogger(w), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// CheckFatal prints an error and exits with error code 1 if err is non-nil.
func CheckFatal(location string, err error, logger log.Logger) {
	if err == nil {
		return
	}
	logger = level.Error(logger)
	if location != "" {
		logger = log.With(logger, "msg", "error "+location)
	}
	// %+v gets the stack trace from errors using github.com/pkg/errors
	errStr := fmt.Sprintf("%+v", err)
	fmt.Fprintln(os.Stderr, errStr)

	logger.Log("err", errStr)
	os.Exit(1)
}
