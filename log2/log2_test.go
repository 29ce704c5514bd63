package log2

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fun  func(t testing.TB, l *Log) string
	}{
		{"caller/debug", func(t testing.TB, l *Log) string {
			l.SetFlags(log.Lshortfile)
			l.Debugf("low level var=%d", 42)
			return formatCallerShort(1) + "debug: low level var=42\n"
		}},
		{"caller/info", func(t testing.TB, l *Log) string {
			l.SetFlags(log.Lshortfile)
			l.Infof("regular state=%s", "ok")
			return formatCallerShort(1) + "regular state=ok\n"
		}},
		{"caller/error", func(t testing.TB, l *Log) string {
			l.SetFlags(log.Lshortfile)
			l.Errorf("problem")
			return formatCallerShort(1) + "error: problem\n"
		}},
		{"error-func/error", func(t testing.TB, l *Log) string {
			ech := make(chan error, 1)
			l.SetErrorFunc(func(e error) { ech <- e })
			l.SetFlags(0)
			exactError := fmt.Errorf("one particular issue")
			l.Error(exactError)
			close(ech)
			e := <-ech
			if l == nil {
				assert.Nil(t, e)
			} else {
				assert.Equal(t, exactError, e)
			}
			return "error: one particular issue\n"
		}},
		{"error-func/string", func(t testing.TB, l *Log) string {
			ech := make(chan error, 1)
			l.SetErrorFunc(func(e error) { ech <- e })
			l.SetFlags(0)
			l.Errorf("trouble var=%.1f", 3.4)
			close(ech)
			e := <-ech
			if l == nil {
				assert.Nil(t, e)
			} else {
				assert.Equal(t, "trouble var=3.4", e.Error())
			}
			return "error: trouble var=3.4\n"
		}},
		{"verbose/hex", func(t testing.TB, l *Log) string {
			l.SetFlags(0)
			l.Hex("frame", []byte{0x68, 0x05, 0x05, 0x68, 0x53})
			l.Verbosef("plain=%d", 3)
			return "verbose: frame (5) 68050568 53\nverbose: plain=3\n"
		}},
		{"printf", func(t testing.TB, l *Log) string {
			l.SetFlags(0)
			l.Printf("[client] %s", "connected")
			l.Println("[pinger]", "ping", 1)
			return "[client] connected\n[pinger] ping 1\n"
		}},
		{"clone/error-func", func(t testing.TB, l *Log) string {
			var got error
			l.SetErrorFunc(func(e error) { got = e })
			l.SetFlags(0)
			c := l.Clone(LError)
			c.Debugf("hidden")
			c.Errorf("decode fail=%d", 1)
			if l != nil {
				assert.EqualError(t, got, "decode fail=1")
			}
			return "error: decode fail=1\n"
		}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name+"/logger=nil", func(t *testing.T) {
			c.fun(t, nil)
		})
		t.Run(c.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			l := NewWriter(buf, LAll)
			expect := c.fun(t, l)
			assert.Equal(t, expect, buf.String())
		})
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()
	buf := bytes.NewBuffer(nil)
	l := NewWriter(buf, LInfo)
	l.SetFlags(0)
	assert.True(t, l.Enabled(LError))
	assert.False(t, l.Enabled(LDebug))

	l.Debugf("skip")
	l.Hex("skip", []byte{1})
	l.Infof("keep")
	l.SetLevel(LVerbose)
	l.Debug("now", " visible")
	l.SetPrefix("meter ")
	l.Info("prefixed")
	assert.Equal(t, "keep\ndebug: now visible\nmeter prefixed\n", buf.String())

	assert.Nil(t, NewWriter(ioutil.Discard, LAll))
	var nilLog *Log
	assert.False(t, nilLog.Enabled(LError))
	assert.Nil(t, nilLog.Clone(LInfo))
}

func TestContextValueLogger(t *testing.T) {
	t.Parallel()
	l := NewTest(t, LDebug)
	ctx := context.WithValue(context.Background(), ContextKey, l)
	assert.Equal(t, l, ContextValueLogger(ctx))
	assert.Panics(t, func() { ContextValueLogger(context.Background()) })
	assert.Panics(t, func() {
		ContextValueLogger(context.WithValue(context.Background(), ContextKey, "log"))
	})
}

func TestFuncWriter(t *testing.T) {
	t.Parallel()
	var got []string
	l := NewFunc(func(format string, args ...interface{}) {
		got = append(got, fmt.Sprintf(format, args...))
	}, LInfo)
	l.SetFlags(0)
	l.Infof("line one")
	l.Errorf("code=%d", 3)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"line one", "error: code=3"}, got)
}

func callerShort(depth int) (file string, line int) {
	var ok bool
	_, file, line, ok = runtime.Caller(depth)
	if !ok {
		file = "???"
		line = 0
	}

	short := file
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			short = file[i+1:]
			break
		}
	}
	file = short

	return
}

func formatCallerShort(depth int) string {
	file, line := callerShort(depth + 1)
	return fmt.Sprintf("%s:%d: ", file, line-1)
}
