package carla

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// measurementLog appends one JSON record per step to a per-episode
// file under the output directory. The file is opened lazily on the
// first record and must be closed on the terminal step.
type measurementLog struct {
	path     string
	compress bool

	file *os.File
	gz   *gzip.Writer
	enc  *json.Encoder
}

func newMeasurementLog(dir, episodeID string, compress bool) *measurementLog {
	name := fmt.Sprintf("measurements_%s.json", episodeID)
	if compress {
		name += ".gz"
	}
	return &measurementLog{path: filepath.Join(dir, name), compress: compress}
}

func (l *measurementLog) open() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating measurement dir: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening measurement log: %w", err)
	}
	l.file = file
	var w io.Writer = file
	if l.compress {
		l.gz = gzip.NewWriter(file)
		w = l.gz
	}
	l.enc = json.NewEncoder(w)
	return nil
}

func (l *measurementLog) Write(m *Measurement) error {
	if l.file == nil {
		if err := l.open(); err != nil {
			return err
		}
	}
	return l.enc.Encode(m)
}

func (l *measurementLog) Close() error {
	if l.file == nil {
		return nil
	}
	if l.gz != nil {
		if err := l.gz.Close(); err != nil {
			l.file.Close()
			return err
		}
		l.gz = nil
	}
	err := l.file.Close()
	l.file = nil
	l.enc = nil
	return err
}
