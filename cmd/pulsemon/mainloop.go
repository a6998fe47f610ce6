package main

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
)

// uiLoop adapts a tcell screen to the bus's main context: Schedule posts
// the task into the tcell event stream, IsMain compares against the
// loop's goroutine.
type uiLoop struct {
	screen tcell.Screen
	loopID atomic.Int64
}

func newUILoop(screen tcell.Screen) *uiLoop {
	l := &uiLoop{screen: screen}
	l.loopID.Store(-1)
	return l
}

// IsMain reports whether the caller runs on the UI loop goroutine.
func (l *uiLoop) IsMain() bool {
	return goid() == l.loopID.Load()
}

// Schedule hands a task to the UI loop through the tcell event stream.
func (l *uiLoop) Schedule(task func()) {
	_ = l.screen.PostEvent(tcell.NewEventInterrupt(task))
}

// run owns the tcell event loop until quit is requested.
func (l *uiLoop) run(onKey func(tcell.Key, rune) bool) {
	l.loopID.Store(goid())
	for {
		ev := l.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			if task, ok := ev.Data().(func()); ok {
				task()
			}
		case *tcell.EventResize:
			l.screen.Sync()
		case *tcell.EventKey:
			if !onKey(ev.Key(), ev.Rune()) {
				return
			}
		case nil:
			return
		}
	}
}

// goid extracts the current goroutine id from the runtime stack header.
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, _ := strconv.ParseInt(string(fields[1]), 10, 64)
	return id
}
