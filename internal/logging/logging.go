// Package logging provides the leveled log.Printf wrapper fleetmap uses
// everywhere, matching the teacher's plain-log.Println/Printf style
// (internal/commands/server.go, internal/scheduler/scheduler.go) rather
// than a structured logger.
package logging

import "log"

var level = "info"

var order = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// SetLevel gates Debug output; anything else always prints, the way the
// teacher's call sites never gate their Printf calls on configuration.
func SetLevel(l string) {
	if _, ok := order[l]; ok {
		level = l
	}
}

func enabled(l string) bool {
	return order[l] >= order[level]
}

func Debug(format string, args ...any) {
	if enabled("debug") {
		log.Printf("debug: "+format, args...)
	}
}

func Info(format string, args ...any) {
	log.Printf("info: "+format, args...)
}

func Warn(format string, args ...any) {
	log.Printf("warning: "+format, args...)
}

func Error(format string, args ...any) {
	log.Printf("error: "+format, args...)
}
