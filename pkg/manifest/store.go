// Package manifest records conversion runs in a SQLite database so that
// later runs can skip unchanged files and reports can show history.
package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spicery/jsconvert/pkg/transpiler"
)

// ErrNotFound is returned when no matching unit has been recorded.
var ErrNotFound = errors.New("no recorded conversion")

// Store is a manifest database. It implements transpiler.History.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the manifest at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMigrated opens the manifest and applies pending migrations.
func OpenMigrated(path string) (*Store, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate manifest: %w", err)
	}
	return s, nil
}

func (s *Store) Migrate() error {
	return Migrate(s.db)
}

func (s *Store) CheckMigration() (bool, error) {
	return CheckMigration(s.db)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordRun stores a finished batch and returns the stored run.
func (s *Store) RecordRun(catalogName string, startedAt time.Time, results []*transpiler.Result) (*Run, error) {
	run := Run{
		Catalog:    catalogName,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		run.Units++
		if r.Status == transpiler.StatusFailed || r.Status == transpiler.StatusCanceled {
			run.Failures++
		}
		run.PassThroughs += r.PassThroughs()
		run.Results = append(run.Results, unitOf(r))
	}

	if err := s.db.Create(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return &run, nil
}

func unitOf(r *transpiler.Result) Unit {
	u := Unit{
		Path:         filepath.Clean(r.Input),
		Catalog:      r.Catalog,
		SourceHash:   r.SourceHash,
		Status:       string(r.Status),
		PassThroughs: r.PassThroughs(),
		DurationMs:   r.Duration.Milliseconds(),
		OutputPath:   r.Output,
	}
	if r.Err != nil {
		u.Error = r.Err.Error()
	}
	if r.Status == transpiler.StatusOK {
		u.Output, u.Compressed = compress(r.Text)
		u.OutputSize = len(r.Text)
	}
	for _, d := range r.Diagnostics {
		u.Diagnostics = append(u.Diagnostics, Diagnostic{
			Kind:     string(d.Kind),
			NodeKind: d.NodeKind,
			Line:     d.Span.StartLine,
			Column:   d.Span.StartColumn,
			Excerpt:  d.Excerpt,
			Message:  d.Message,
		})
	}
	return u
}

// LastSuccess returns the latest unit of path converted without failure
// by the named catalog.
func (s *Store) LastSuccess(path, catalogName string) (*Unit, error) {
	var unit Unit
	err := s.db.
		Where("path = ? AND catalog = ? AND status IN ?", filepath.Clean(path), catalogName,
			[]string{string(transpiler.StatusOK), string(transpiler.StatusUnchanged)}).
		Order("id DESC").
		Take(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s with %s", ErrNotFound, path, catalogName)
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// SourceHash implements transpiler.History.
func (s *Store) SourceHash(path, catalogName string) (string, bool, error) {
	unit, err := s.LastSuccess(path, catalogName)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return unit.SourceHash, true, nil
}

// Output returns the converted text stored with unit.
func (s *Store) Output(unit *Unit) (string, error) {
	return decompress(unit.Output, unit.OutputSize, unit.Compressed)
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	var runs []Run
	query := s.db.Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// Units returns the units of a run with their diagnostics.
func (s *Store) Units(runID uint) ([]Unit, error) {
	var units []Unit
	err := s.db.Preload("Diagnostics").Where("run_id = ?", runID).Order("id").Find(&units).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}
