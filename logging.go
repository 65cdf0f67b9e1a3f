// FILE: logging.go
// Package main – logrus setup with optional rotating file output.
//
// Console output always goes to stdout; when LOG_FILE is set, a lumberjack
// writer rotates the file by size/age so long-running deployments do not
// fill the disk. Level comes from LOG_LEVEL (default info).

package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func initLogging() {
	level, err := log.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if path := getEnv("LOG_FILE", ""); path != "" {
		rotated := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    getEnvInt("LOG_MAX_SIZE_MB", 20),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
}
