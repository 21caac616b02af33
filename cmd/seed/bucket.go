package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/stockwatch/internal/config"
	stockhealth "github.com/andresuchdata/stockwatch/internal/pipeline/stock_health"
	"github.com/andresuchdata/stockwatch/internal/storage"
	"github.com/andresuchdata/stockwatch/pkg/logger"
)

// bucketDownloader mirrors snapshot CSVs from object storage into a local directory.
type bucketDownloader struct {
	client  storage.ObjectStorage
	destDir string
}

func newBucketDownloader(ctx context.Context, destDir string) (*bucketDownloader, error) {
	cfg := config.Load().Storage
	client, err := storage.NewMinioClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", destDir, err)
	}
	return &bucketDownloader{client: client, destDir: destDir}, nil
}

func (d *bucketDownloader) download(ctx context.Context, prefix, override string) ([]string, error) {
	var keys []string

	if override != "" {
		keys = []string{resolveObjectKey(prefix, override)}
	} else {
		listPrefix := strings.TrimSpace(prefix)
		objects, err := d.client.ListObjects(ctx, listPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", listPrefix, err)
		}
		for _, obj := range objects {
			if isSnapshotFile(obj.Key) {
				keys = append(keys, obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no snapshot files found for prefix %s", prefix)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(d.destDir, objectRelativePath(prefix, key))
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to prepare directory for %s: %w", localPath, err)
		}
		if err := d.client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	localPaths, err := convertSpreadsheets(localPaths)
	if err != nil {
		return nil, err
	}
	sort.Strings(localPaths)
	logger.Log.Info().Int("files", len(localPaths)).Str("dir", d.destDir).Msg("Downloaded snapshot files")
	return localPaths, nil
}

func resolveObjectKey(prefix, override string) string {
	if override == "" {
		return strings.TrimSpace(prefix)
	}
	if prefix == "" {
		return strings.TrimPrefix(override, "/")
	}

	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	overrideTrimmed := strings.TrimPrefix(strings.TrimSpace(override), "/")

	if strings.HasPrefix(overrideTrimmed, prefixTrimmed) {
		return overrideTrimmed
	}
	return fmt.Sprintf("%s/%s", prefixTrimmed, overrideTrimmed)
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" {
		return filepath.Base(key)
	}
	return rel
}

func isSnapshotFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// convertSpreadsheets replaces every .xlsx path with a converted .csv sibling.
func convertSpreadsheets(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
			out = append(out, path)
			continue
		}
		csvPath := stockhealth.CSVPathFor(path)
		if err := stockhealth.ConvertXLSXToCSV(path, csvPath); err != nil {
			return nil, err
		}
		logger.Log.Debug().Str("from", path).Str("to", csvPath).Msg("Converted spreadsheet snapshot")
		out = append(out, csvPath)
	}
	return out, nil
}

// collectSnapshotFiles returns the CSV inputs under root, converting spreadsheets first.
func collectSnapshotFiles(root string) ([]string, error) {
	var spreadsheets []string
	files := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			files = append(files, path)
		case ".xlsx":
			spreadsheets = append(spreadsheets, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	converted, err := convertSpreadsheets(spreadsheets)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		seen[f] = struct{}{}
	}
	for _, f := range converted {
		if _, ok := seen[f]; !ok {
			files = append(files, f)
		}
	}

	sort.Strings(files)
	return files, nil
}
