package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bomwx/forecast-tracker/internal/domain"
)

// FileStore persists one JSON file per location under
// {dataDir}/{region}/{name}.json, with expired forecasts archived under
// {dataDir}/archive/{region}/{name}.json. Files use stable 2-space
// indentation so day-to-day diffs stay readable.
type FileStore struct {
	dataDir string
	logger  *slog.Logger
}

// NewFileStore creates a FileStore rooted at dataDir.
func NewFileStore(dataDir string, logger *slog.Logger) *FileStore {
	return &FileStore{dataDir: dataDir, logger: logger}
}

func (s *FileStore) recordPath(region, name string) string {
	return filepath.Join(s.dataDir, region, name+".json")
}

func (s *FileStore) archivePath(region, name string) string {
	return filepath.Join(s.dataDir, "archive", region, name+".json")
}

// Load reads a location's record. A missing file is not an error; it returns
// (nil, nil) so the first collection for a location starts fresh.
func (s *FileStore) Load(region, name string) (*domain.LocationRecord, error) {
	path := s.recordPath(region, name)

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var rec domain.LocationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &rec, nil
}

// Save writes a location's record, creating parent directories as needed.
// The write goes through a temp file and rename so readers never observe a
// partially written record.
func (s *FileStore) Save(region, name string, rec domain.LocationRecord) error {
	return s.writeRecord(s.recordPath(region, name), rec)
}

// Archive folds expired forecast dates into the location's archive file,
// unioning with whatever the archive already holds.
func (s *FileStore) Archive(region, name string, rec domain.LocationRecord, expired map[domain.Date]domain.DayRecord) error {
	if len(expired) == 0 {
		return nil
	}

	path := s.archivePath(region, name)

	existing, err := s.readArchive(path)
	if err != nil {
		return err
	}
	if existing == nil {
		existing = &domain.LocationRecord{
			LocationID:  rec.LocationID,
			DisplayName: rec.DisplayName,
			Region:      rec.Region,
			Timezone:    rec.Timezone,
			Forecasts:   make(map[domain.Date]domain.DayRecord),
		}
	}

	for date, day := range expired {
		merged, ok := existing.Forecasts[date]
		if !ok {
			merged = make(domain.DayRecord, len(day))
		}
		for horizon, pred := range day {
			merged[horizon] = pred
		}
		existing.Forecasts[date] = merged
	}

	return s.writeRecord(path, *existing)
}

// LocationRef identifies one stored record by its path parts.
type LocationRef struct {
	Region string `json:"region"`
	Name   string `json:"name"`
}

// List walks the data directory and returns every stored location,
// skipping the archive tree.
func (s *FileStore) List() ([]LocationRef, error) {
	var refs []LocationRef

	entries, err := os.ReadDir(s.dataDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.dataDir, err)
	}

	for _, region := range entries {
		if !region.IsDir() || region.Name() == "archive" {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.dataDir, region.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Join(s.dataDir, region.Name()), err)
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
				continue
			}
			refs = append(refs, LocationRef{
				Region: region.Name(),
				Name:   strings.TrimSuffix(f.Name(), ".json"),
			})
		}
	}

	return refs, nil
}

func (s *FileStore) readArchive(path string) (*domain.LocationRecord, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}

	var rec domain.LocationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse archive %s: %w", path, err)
	}
	if rec.Forecasts == nil {
		rec.Forecasts = make(map[domain.Date]domain.DayRecord)
	}
	return &rec, nil
}

func (s *FileStore) writeRecord(path string, rec domain.LocationRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}

	s.logger.Debug("wrote record", "path", path)
	return nil
}
