package util

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

var (
	loggers = map[string]*Logger{}
	levels  = map[string]jww.Threshold{}

	loggersMux sync.Mutex

	// OutThreshold is the default console log level
	OutThreshold = jww.LevelError

	// LogThreshold is the default log file level
	LogThreshold = jww.LevelWarn
)

// Logger wraps a jww notepad to avoid leaking implementation detail
type Logger struct {
	*jww.Notepad
	*Redactor
}

// NewLogger creates a logger with the given log area and adds it to the registry
func NewLogger(area string) *Logger {
	padded := area
	for len(padded) < 10 {
		padded += " "
	}

	loggersMux.Lock()
	defer loggersMux.Unlock()

	if logger, ok := loggers[area]; ok {
		return logger
	}

	level := logLevelForArea(area)
	redactor := &Redactor{out: os.Stdout}
	notepad := jww.NewNotepad(level, LogThreshold, redactor, io.Discard, padded, log.Ldate|log.Ltime)

	logger := &Logger{
		Notepad:  notepad,
		Redactor: redactor,
	}

	loggers[area] = logger
	return logger
}

// Redact adds items for redaction
func (l *Logger) Redact(items ...string) *Logger {
	l.Redactor.Redact(items...)
	return l
}

// Loggers invokes callback for each configured logger
func Loggers(cb func(string, *Logger)) {
	loggersMux.Lock()
	defer loggersMux.Unlock()

	for name, logger := range loggers {
		cb(name, logger)
	}
}

func logLevelForArea(area string) jww.Threshold {
	level, ok := levels[strings.ToLower(area)]
	if !ok {
		level = OutThreshold
	}
	return level
}

// LogLevel sets log level for all loggers
func LogLevel(defItem string, areaItems map[string]string) {
	// default level
	OutThreshold = LogLevelToThreshold(defItem)

	// area levels
	for area, level := range areaItems {
		area = strings.ToLower(area)
		levels[area] = LogLevelToThreshold(level)
	}

	Loggers(func(name string, logger *Logger) {
		logger.SetStdoutThreshold(logLevelForArea(name))
	})
}

// LogLevelToThreshold converts log level string to a jww Threshold
func LogLevelToThreshold(level string) jww.Threshold {
	switch strings.ToUpper(level) {
	case "FATAL":
		return jww.LevelFatal
	case "ERROR":
		return jww.LevelError
	case "WARN":
		return jww.LevelWarn
	case "INFO":
		return jww.LevelInfo
	case "DEBUG":
		return jww.LevelDebug
	case "TRACE":
		return jww.LevelTrace
	default:
		panic("invalid log level " + level)
	}
}

// Redactor masks sensitive values before writing log output
type Redactor struct {
	mu     sync.Mutex
	out    io.Writer
	redact []string
}

// Redact adds items for redaction
func (r *Redactor) Redact(items ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(items...)
}

// Replace swaps a redacted item for its successor, e.g. a rotated token
func (r *Redactor) Replace(prev, next string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev != "" && prev != next {
		res := r.redact[:0]
		for _, s := range r.redact {
			if s != prev {
				res = append(res, s)
			}
		}
		r.redact = res
	}

	r.add(next)
}

// Len returns the number of redacted items
func (r *Redactor) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.redact)
}

func (r *Redactor) add(items ...string) {
	for _, s := range items {
		if len(s) == 0 {
			continue
		}

		var found bool
		for _, e := range r.redact {
			if e == s {
				found = true
				break
			}
		}

		if !found {
			r.redact = append(r.redact, s)
		}
	}
}

func (r *Redactor) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.redact) == 0 {
		return r.out.Write(p)
	}

	s := string(p)
	for _, item := range r.redact {
		s = strings.ReplaceAll(s, item, "***")
	}

	if _, err := r.out.Write([]byte(s)); err != nil {
		return 0, err
	}

	return len(p), nil
}
