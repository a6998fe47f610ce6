// Command pulsemon is a terminal event monitor demonstrating the bus
// against a real UI main loop: a file watcher and a ticker post events,
// a stats view renders on the main context, an optional Lua script runs
// on the background context, and an archiver appends on the async
// queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/pulse"
	"github.com/dshills/pulse/poster"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "pulsemon:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	loop := newUILoop(screen)

	pool := poster.NewPool(
		poster.WithWorkerCount(cfg.WorkerCount),
		poster.WithQueueSize(cfg.QueueSize),
	)
	if err := pool.Start(); err != nil {
		return err
	}
	defer pool.Stop(context.Background())

	logFile, err := os.OpenFile(cfg.ArchivePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer logFile.Close()

	bus := pulse.New(
		pulse.WithMainSupport(loop),
		pulse.WithExecutor(pool),
		pulse.WithLogger(slog.New(slog.NewTextHandler(logFile, nil))),
	)

	view := newStatsView(screen)
	if err := bus.Register(view); err != nil {
		return err
	}
	defer bus.Unregister(view)

	archiver := &archiver{out: logFile}
	if err := bus.Register(archiver); err != nil {
		return err
	}
	defer bus.Unregister(archiver)

	if cfg.Script != "" {
		sink, err := newLuaSink(cfg.Script)
		if err != nil {
			return err
		}
		defer sink.Close()
		if err := bus.Register(sink); err != nil {
			return err
		}
		defer bus.Unregister(sink)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := startWatcher(ctx, bus, cfg.WatchDirs)
	if err != nil {
		return err
	}
	defer watcher.Close()

	go tickLoop(ctx, bus, time.Duration(cfg.TickInterval))

	if err := bus.PostSticky(ctx, StatusLine{Text: "watching " + fmt.Sprint(cfg.WatchDirs)}); err != nil {
		return err
	}

	loop.run(func(key tcell.Key, r rune) bool {
		switch {
		case key == tcell.KeyEscape || key == tcell.KeyCtrlC || r == 'q':
			return false
		}
		return true
	})
	return nil
}

// startWatcher posts a FileChanged for every notification under the
// watched directories.
func startWatcher(ctx context.Context, bus *pulse.Bus, dirs []string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				_ = bus.Post(ctx, FileChanged{Path: ev.Name, Op: ev.Op.String(), At: time.Now()})
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return watcher, nil
}

// tickLoop posts the synthetic heartbeat.
func tickLoop(ctx context.Context, bus *pulse.Bus, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	seq := 0
	for {
		select {
		case <-ctx.Done():
			return
		case at := <-ticker.C:
			seq++
			_ = bus.Post(ctx, Tick{Seq: seq, At: at})
		}
	}
}
