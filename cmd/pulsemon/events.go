package main

import "time"

// FileChanged is posted for every filesystem notification in a watched
// directory.
type FileChanged struct {
	Path string
	Op   string
	At   time.Time
}

// Tick is the synthetic heartbeat event.
type Tick struct {
	Seq int
	At  time.Time
}

// StatusLine is posted sticky so late subscribers render the latest
// status immediately.
type StatusLine struct {
	Text string
}
