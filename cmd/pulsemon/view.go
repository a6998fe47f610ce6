package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/pulse/handler"
)

// statsView renders event counters on the main context. All of its
// handlers run on the UI loop, so no locking is needed.
type statsView struct {
	screen tcell.Screen

	files  int
	ticks  int
	status string
	recent []string
}

func newStatsView(screen tcell.Screen) *statsView {
	return &statsView{screen: screen}
}

func (v *statsView) OnFileChanged(ctx context.Context, e FileChanged) error {
	v.files++
	v.remember(fmt.Sprintf("%s %s", e.Op, e.Path))
	v.render()
	return nil
}

func (v *statsView) OnTick(ctx context.Context, e Tick) error {
	v.ticks++
	v.render()
	return nil
}

func (v *statsView) OnStatus(ctx context.Context, e StatusLine) error {
	v.status = e.Text
	v.render()
	return nil
}

func (v *statsView) EventSpecs() []handler.Spec {
	return []handler.Spec{
		handler.On("OnFileChanged", (*statsView).OnFileChanged, handler.WithContext(handler.Main)),
		handler.On("OnTick", (*statsView).OnTick, handler.WithContext(handler.Main)),
		handler.On("OnStatus", (*statsView).OnStatus,
			handler.WithContext(handler.Main), handler.WithSticky()),
	}
}

func (v *statsView) remember(line string) {
	v.recent = append(v.recent, line)
	if len(v.recent) > 8 {
		v.recent = v.recent[len(v.recent)-8:]
	}
}

func (v *statsView) render() {
	v.screen.Clear()
	style := tcell.StyleDefault
	drawText(v.screen, 0, 0, style.Bold(true), "pulsemon  (q to quit)")
	drawText(v.screen, 0, 1, style, v.status)
	drawText(v.screen, 0, 2, style, fmt.Sprintf("files: %d  ticks: %d", v.files, v.ticks))
	for i, line := range v.recent {
		drawText(v.screen, 2, 4+i, style.Dim(true), line)
	}
	v.screen.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}

// archiver appends one line per event on the async queue.
type archiver struct {
	out io.Writer
}

func (a *archiver) OnFileChanged(ctx context.Context, e FileChanged) error {
	_, err := fmt.Fprintf(a.out, "%s file %s %s\n", e.At.Format(time.RFC3339), e.Op, e.Path)
	return err
}

func (a *archiver) EventSpecs() []handler.Spec {
	return []handler.Spec{
		handler.On("OnFileChanged", (*archiver).OnFileChanged, handler.WithContext(handler.Async)),
	}
}
