/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package shm

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"
)

type logger struct {
	name      string
	out       atomic.Pointer[io.Writer]
	callDepth int
}

var (
	internalLogger = newLogger("", os.Stdout)
	level          atomic.Int32

	magenta = string([]byte{27, 91, 57, 53, 109}) // Trace
	green   = string([]byte{27, 91, 57, 50, 109}) // Debug
	blue    = string([]byte{27, 91, 57, 52, 109}) // Info
	yellow  = string([]byte{27, 91, 57, 51, 109}) // Warn
	red     = string([]byte{27, 91, 57, 49, 109}) // Error
	reset   = string([]byte{27, 91, 48, 109})

	colors = []string{
		magenta,
		green,
		blue,
		yellow,
		red,
	}

	levelName = []string{
		"Trace",
		"Debug",
		"Info",
		"Warn",
		"Error",
	}
)

// Log levels accepted by SetLogLevel and the SHMSEG_LOG_LEVEL environment variable.
const (
	LevelTrace = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNoPrint
)

func init() {
	level.Store(LevelWarn)
	if v := os.Getenv("SHMSEG_LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= LevelTrace && n <= LevelNoPrint {
			level.Store(int32(n))
		}
	}
}

// SetLogLevel changes the package logger's level. The default is LevelWarn; the
// process env `SHMSEG_LOG_LEVEL` also sets it.
func SetLogLevel(l int) {
	if l >= LevelTrace && l <= LevelNoPrint {
		level.Store(int32(l))
	}
}

// SetLogOutput redirects the package logger. A nil writer restores os.Stdout.
func SetLogOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	internalLogger.out.Store(&w)
}

func newLogger(name string, out io.Writer) *logger {
	if out == nil {
		out = os.Stdout
	}
	l := &logger{
		name:      name,
		callDepth: 4,
	}
	l.out.Store(&out)
	return l
}

func (l *logger) printf(lv int, format string, a ...interface{}) {
	if int(level.Load()) > lv {
		return
	}
	if _, err := fmt.Fprintf(*l.out.Load(), l.prefix(lv)+format+reset+"\n", a...); err != nil {
		fmt.Fprintf(os.Stderr, "shm logger write failed: %v\n", err)
	}
}

func (l *logger) errorf(format string, a ...interface{}) { l.printf(LevelError, format, a...) }

func (l *logger) warnf(format string, a ...interface{}) { l.printf(LevelWarn, format, a...) }

func (l *logger) infof(format string, a ...interface{}) { l.printf(LevelInfo, format, a...) }

func (l *logger) debugf(format string, a ...interface{}) { l.printf(LevelDebug, format, a...) }

func (l *logger) tracef(format string, a ...interface{}) { l.printf(LevelTrace, format, a...) }

func (l *logger) prefix(level int) string {
	var buffer [64]byte
	buf := bytes.NewBuffer(buffer[:0])
	_, _ = buf.WriteString(colors[level])
	_, _ = buf.WriteString(levelName[level])
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(time.Now().Format("2006-01-02 15:04:05.999999"))
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.location())
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.name)
	_ = buf.WriteByte(' ')
	return buf.String()
}

func (l *logger) location() string {
	_, file, line, ok := runtime.Caller(l.callDepth)
	if !ok {
		file = "???"
		line = 0
	}
	file = filepath.Base(file)
	return file + ":" + strconv.Itoa(line)
}

// Dump writes a hex dump of length bytes at offset to w, prefixed with a line
// describing the segment.
func (s *Segment) Dump(w io.Writer, offset, length int) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = fmt.Fprintf(buf, "name:%s backend:%s size:%d creator:%t offset:%d length:%d\n",
		s.name, s.backend, s.size, s.creator, offset, length)
	dumper := hex.Dumper(buf)
	err := s.access("dump", offset, length, func(b []byte) {
		_, _ = dumper.Write(b)
	})
	if err != nil {
		return err
	}
	_ = dumper.Close()
	internalLogger.tracef("dumped %d bytes of %s", length, s.name)
	_, err = buf.WriteTo(w)
	return err
}
