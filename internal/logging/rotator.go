// Package logging provides a date-rotating file writer for the JSON
// event stream, compressing rotated files with gzip.
package logging

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Rotator writes to a per-day file under a directory, rotating at the
// date boundary and gzip-compressing the file it leaves behind.
type Rotator struct {
	dir         string
	prefix      string
	useUTC      bool
	logger      *logrus.Logger
	currentFile *os.File
	currentDate string
	mutex       sync.RWMutex
}

// NewRotator creates a rotator writing prefix_YYYY-MM-DD.log files under
// dir, creating the directory if needed.
func NewRotator(dir, prefix string, useUTC bool, logger *logrus.Logger) (*Rotator, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	r := &Rotator{
		dir:    dir,
		prefix: prefix,
		useUTC: useUTC,
		logger: logger,
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.rotate(); err != nil {
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}

	return r, nil
}

// Start runs the rotation check loop until the context is canceled.
func (r *Rotator) Start(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Event log rotator stopping")
			return
		case <-ticker.C:
			r.checkRotation()
		}
	}
}

func (r *Rotator) now() time.Time {
	if r.useUTC {
		return time.Now().UTC()
	}
	return time.Now()
}

func (r *Rotator) fileForDate(date string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s_%s.log", r.prefix, date))
}

// checkRotation rotates when the date has changed since the last write.
func (r *Rotator) checkRotation() {
	currentDate := r.now().Format("2006-01-02")

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentDate != currentDate {
		r.logger.WithFields(logrus.Fields{
			"old_date": r.currentDate,
			"new_date": currentDate,
		}).Info("Rotating event log file")

		if err := r.rotate(); err != nil {
			r.logger.WithError(err).Error("Failed to rotate event log file")
		}
	}
}

// rotate closes the current file, schedules its compression and opens
// the file for today. Callers hold the mutex.
func (r *Rotator) rotate() error {
	newDate := r.now().Format("2006-01-02")

	if r.currentFile != nil {
		oldDate := r.currentDate
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old event log file")
		}
		go r.compress(oldDate)
	}

	path := r.fileForDate(newDate)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", path, err)
	}

	r.currentFile = file
	r.currentDate = newDate

	r.logger.WithField("file", path).Info("Opened event log file")
	return nil
}

// compress gzips a rotated file and removes the original.
func (r *Rotator) compress(date string) {
	src := r.fileForDate(date)
	dst := src + ".gz"

	if _, err := os.Stat(src); os.IsNotExist(err) {
		return
	}

	in, err := os.Open(src)
	if err != nil {
		r.logger.WithError(err).WithField("file", src).Error("Failed to open file for compression")
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		r.logger.WithError(err).WithField("file", dst).Error("Failed to create compressed file")
		return
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(src)
	gz.ModTime = time.Now()

	if _, err := io.Copy(gz, in); err != nil {
		r.logger.WithError(err).Error("Failed to compress event log file")
		return
	}
	if err := gz.Close(); err != nil {
		r.logger.WithError(err).Error("Failed to flush gzip writer")
		return
	}

	if err := os.Remove(src); err != nil {
		r.logger.WithError(err).WithField("file", src).Error("Failed to remove rotated file")
		return
	}

	r.logger.WithField("file", dst).Info("Compressed rotated event log file")
}

// Writer returns the current file as an io.Writer.
func (r *Rotator) Writer() (io.Writer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentFile == nil {
		return nil, fmt.Errorf("no current log file")
	}
	return r.currentFile, nil
}

// CurrentFile returns the active log file path.
func (r *Rotator) CurrentFile() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentDate == "" {
		return ""
	}
	return r.fileForDate(r.currentDate)
}

// Close closes the active log file.
func (r *Rotator) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentFile != nil {
		if err := r.currentFile.Close(); err != nil {
			return err
		}
		r.currentFile = nil
	}
	return nil
}
