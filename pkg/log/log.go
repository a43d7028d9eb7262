/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package log

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type LogLevel int

const (
	LogPrefix     = "[go-bitalino] "
	ErrorPrefix   = "[error] "
	WarningPrefix = "[warn] "
	InfoPrefix    = "[info] "
	DebugPrefix   = "[debug] "
	HelpLevels    = "Must be one of: error, warning, info, debug."
)

const (
	ErrorLevel LogLevel = iota
	WarningLevel
	InfoLevel
	DebugLevel
)

const DefaultLevel = "info"

type Logger struct {
	mu      sync.Mutex
	level   LogLevel
	enabled bool
	*log.Logger
}

var logger = &Logger{
	level:  InfoLevel,
	Logger: log.New(os.Stderr, LogPrefix, log.LstdFlags),
}

func parseLevel(strLevel string) (LogLevel, error) {
	levelMapping := map[string]LogLevel{
		"error":   ErrorLevel,
		"warning": WarningLevel,
		"info":    InfoLevel,
		"debug":   DebugLevel,
	}
	level, ok := levelMapping[strLevel]
	if !ok {
		return InfoLevel, errors.New("Wrong log level. " + HelpLevels)
	}
	return level, nil
}

func SetLevel(strLevel string) error {
	level, err := parseLevel(strLevel)
	if err != nil {
		return err
	}
	logger.mu.Lock()
	defer logger.mu.Unlock()
	logger.level = level
	return nil
}

// Init configures the process-wide sink unconditionally. Meant for the CLI
// entry point, which owns the process; library consumers use Enable.
func Init(out io.Writer, strLevel string) {
	logger.SetOutput(out)
	if err := SetLevel(strLevel); err != nil {
		panic(err)
	}
	logger.mu.Lock()
	logger.enabled = true
	logger.mu.Unlock()
}

// Enable sets the process-wide log level. Safe to call from any goroutine;
// repeated calls are no-ops, so the first caller decides the level until
// Reset is called.
func Enable(strLevel string) error {
	level, err := parseLevel(strLevel)
	if err != nil {
		return err
	}
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if logger.enabled {
		return nil
	}
	logger.level = level
	logger.enabled = true
	return nil
}

// Reset returns the sink to its default state so that the next Enable call
// takes effect again.
func Reset() {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	logger.enabled = false
	logger.level = InfoLevel
	logger.SetOutput(os.Stderr)
}

func levelEnabled(level LogLevel) bool {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	return logger.level >= level
}

func Error(format string, v ...interface{}) {
	if levelEnabled(ErrorLevel) {
		logger.Println(fmt.Sprintf(ErrorPrefix+format, v...))
	}
}

func Warning(format string, v ...interface{}) {
	if levelEnabled(WarningLevel) {
		logger.Println(fmt.Sprintf(WarningPrefix+format, v...))
	}
}

func Info(format string, v ...interface{}) {
	if levelEnabled(InfoLevel) {
		logger.Println(fmt.Sprintf(InfoPrefix+format, v...))
	}
}

func Debug(format string, v ...interface{}) {
	if levelEnabled(DebugLevel) {
		logger.Println(fmt.Sprintf(DebugPrefix+format, v...))
	}
}
