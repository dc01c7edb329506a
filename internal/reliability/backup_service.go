// Package reliability snapshots the databases and ships them to object storage.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/forecast/internal/database"
)

const (
	archivePrefix   = "forecast-backup-"
	archiveSuffix   = ".tar.gz"
	timestampLayout = "2006-01-02-150405"
	metadataFile    = "backup-metadata.json"
)

// Snapshotter is the part of database.DB a backup needs.
type Snapshotter interface {
	Name() string
	VacuumInto(ctx context.Context, dest string) error
}

var _ Snapshotter = (*database.DB)(nil)

// BackupMetadata contains metadata about a backup
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Version   string             `json:"version"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata contains metadata about a single database in the backup
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents a backup archive in the store
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// BackupService creates database archives and uploads them
type BackupService struct {
	store     ObjectStore
	databases []Snapshotter
	prefix    string
	dataDir   string
	version   string
	now       func() time.Time
	log       zerolog.Logger
}

// NewBackupService creates a new backup service. prefix is prepended to every key.
func NewBackupService(store ObjectStore, databases []Snapshotter, prefix, dataDir, version string, log zerolog.Logger) *BackupService {
	return &BackupService{
		store:     store,
		databases: databases,
		prefix:    prefix,
		dataDir:   dataDir,
		version:   version,
		now:       time.Now,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUpload snapshots every database into a tar.gz and uploads it.
// It returns the key of the uploaded archive.
func (s *BackupService) CreateAndUpload(ctx context.Context) (string, error) {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	stagingDir, err := os.MkdirTemp(s.dataDir, "backup-staging-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	timestamp := s.now().UTC()
	archiveName := archivePrefix + timestamp.Format(timestampLayout) + archiveSuffix
	archivePath := filepath.Join(stagingDir, archiveName)

	metadata, err := s.snapshot(ctx, stagingDir, timestamp)
	if err != nil {
		return "", err
	}

	files := make([]string, 0, len(metadata.Databases)+1)
	for _, db := range metadata.Databases {
		files = append(files, db.Filename)
	}
	files = append(files, metadataFile)

	if err := createArchive(archivePath, stagingDir, files); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	key := s.prefix + archiveName
	if err := s.store.Upload(ctx, key, archive); err != nil {
		return "", err
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("key", key).
		Int("databases", len(metadata.Databases)).
		Msg("Backup completed")

	return key, nil
}

// snapshot writes a VACUUM INTO copy of every database plus the metadata file.
func (s *BackupService) snapshot(ctx context.Context, dir string, timestamp time.Time) (BackupMetadata, error) {
	metadata := BackupMetadata{
		Timestamp: timestamp,
		Version:   s.version,
		Databases: make([]DatabaseMetadata, 0, len(s.databases)),
	}

	for _, db := range s.databases {
		filename := db.Name() + ".db"
		path := filepath.Join(dir, filename)

		s.log.Debug().Str("database", db.Name()).Msg("Snapshotting database")
		if err := db.VacuumInto(ctx, path); err != nil {
			return metadata, fmt.Errorf("failed to snapshot %s: %w", db.Name(), err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return metadata, fmt.Errorf("failed to stat %s snapshot: %w", db.Name(), err)
		}
		checksum, err := fileChecksum(path)
		if err != nil {
			return metadata, fmt.Errorf("failed to checksum %s: %w", db.Name(), err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      db.Name(),
			Filename:  filename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
	}

	if err := writeMetadata(filepath.Join(dir, metadataFile), metadata); err != nil {
		return metadata, fmt.Errorf("failed to write metadata: %w", err)
	}
	return metadata, nil
}

// ListBackups returns the archives in the store, newest first.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, s.prefix+archivePrefix)
	if err != nil {
		return nil, err
	}

	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, s.prefix)
		if !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveSuffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), archiveSuffix)
		ts, err := time.Parse(timestampLayout, stamp)
		if err != nil {
			s.log.Warn().Str("key", obj.Key).Msg("Failed to parse timestamp from backup key")
			continue
		}

		backups = append(backups, BackupInfo{Key: obj.Key, Timestamp: ts, SizeBytes: obj.SizeBytes})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Prune keeps the newest `keep` archives and deletes the rest.
// keep <= 0 disables pruning.
func (s *BackupService) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, b := range backups[keep:] {
		if err := s.store.Delete(ctx, b.Key); err != nil {
			s.log.Error().Err(err).Str("key", b.Key).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("kept", keep).
		Msg("Backup pruning completed")
	return deleted, nil
}

// fileChecksum returns "sha256:<hex>" of the file at path.
func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// createArchive writes the named files from sourceDir into a tar.gz at archivePath.
func createArchive(archivePath, sourceDir string, filenames []string) (err error) {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if cerr := archiveFile.Close(); err == nil {
			err = cerr
		}
	}()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, name := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode().Perm()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
