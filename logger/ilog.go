package ilog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

const (
	DEBUG = iota
	INFO
	WARN
	ERROR
	FATAL
	NONE

	ENV_LOGLEVEL = "LOGLEVEL"
)

var LEVELS = map[string]int{
	"DEBUG": DEBUG,
	"INFO":  INFO,
	"WARN":  WARN,
	"ERROR": ERROR,
	"FATAL": FATAL,
	"NONE":  NONE,
}

var prefixes = []string{"DEBUG ", "INFO ", "WARN ", "ERROR ", "FATAL "}

type ILOG interface {
	SetLOGLEVEL(lvl int)
	GetLOGLEVEL() int
	IfDebug() bool
	Debug(format string, a ...any)
	Info(format string, a ...any)
	Warn(format string, a ...any)
	Error(format string, a ...any)
	Fatal(format string, a ...any)
}

type LOG struct {
	mux     sync.RWMutex
	loglvl  int
	logger  *log.Logger
	out     io.Writer // output without the logfile
	logfile *os.File
	exit    func(code int) // os.Exit unless replaced in tests
}

// NewLogger returns a LOG writing to stdout and,
// if logfile is not empty, appending to logfile too.
func NewLogger(lvl int, logfile string) *LOG {
	var out io.Writer = os.Stdout
	l := &LOG{loglvl: lvl, out: os.Stdout, exit: os.Exit}
	if logfile != "" {
		fh, err := os.OpenFile(logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("ERROR ilog open logfile='%s' err='%v'", logfile, err)
		} else {
			l.logfile = fh
			out = io.MultiWriter(os.Stdout, fh)
		}
	}
	l.logger = log.New(out, "", log.LstdFlags|log.Lmicroseconds)
	return l
} // end func NewLogger

// NewWriterLogger is NewLogger for an arbitrary writer.
func NewWriterLogger(lvl int, w io.Writer) *LOG {
	return &LOG{loglvl: lvl, logger: log.New(w, "", 0), out: w, exit: os.Exit}
}

// GetEnvLOGLEVEL reads LOGLEVEL from the environment, INFO if unset or unknown.
func GetEnvLOGLEVEL() int {
	lvlstr := os.Getenv(ENV_LOGLEVEL)
	if lvlstr == "" {
		return INFO
	}
	fmt.Printf("LOGLEVEL=\"%s\"\n", lvlstr)
	return GetLOGLEVEL(lvlstr)
}

func GetLOGLEVEL(lvlstr string) int {
	if lvl, ok := LEVELS[strings.ToUpper(strings.TrimSpace(lvlstr))]; ok {
		return lvl
	}
	return INFO
}

func (l *LOG) SetLOGLEVEL(lvl int) {
	if lvl < DEBUG || lvl > NONE {
		l.Warn("SetLOGLEVEL invalid lvl=%d", lvl)
		return
	}
	l.mux.Lock()
	l.loglvl = lvl
	l.mux.Unlock()
}

func (l *LOG) GetLOGLEVEL() int {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return l.loglvl
}

func (l *LOG) IfDebug() bool {
	return l.GetLOGLEVEL() == DEBUG
}

// SetLogfile appends all further lines to logfile too,
// replacing a previously set logfile. Empty logfile is a no-op.
func (l *LOG) SetLogfile(logfile string) error {
	if logfile == "" {
		return nil
	}
	fh, err := os.OpenFile(logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.mux.Lock()
	old := l.logfile
	l.logfile = fh
	l.logger.SetOutput(io.MultiWriter(l.out, fh))
	l.mux.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

func (l *LOG) Close() error {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.logfile == nil {
		return nil
	}
	err := l.logfile.Close()
	l.logfile = nil
	l.logger.SetOutput(l.out)
	return err
}

func (l *LOG) logf(lvl int, format string, a ...any) {
	if l.GetLOGLEVEL() > lvl {
		return
	}
	l.logger.Output(3, prefixes[lvl]+fmt.Sprintf(format, a...))
}

func (l *LOG) Debug(format string, a ...any) {
	l.logf(DEBUG, format, a...)
}

func (l *LOG) Info(format string, a ...any) {
	l.logf(INFO, format, a...)
}

func (l *LOG) Warn(format string, a ...any) {
	l.logf(WARN, format, a...)
}

func (l *LOG) Error(format string, a ...any) {
	l.logf(ERROR, format, a...)
}

// Fatal always prints and exits with code 1.
func (l *LOG) Fatal(format string, a ...any) {
	l.logger.Output(2, prefixes[FATAL]+fmt.Sprintf(format, a...))
	l.exit(1)
}
