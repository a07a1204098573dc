// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"
	"strings"

	"github.com/declutterd/declutterd/internal/domain"
)

var missingFilesErrorMessages = map[string]struct{}{
	"Some files are missing":          {},
	"No files found are eligible":     {},
	"The download is missing files":   {},
	"qBittorrent is reporting missing files": {},
}

const missingFilesImportPrefix = "No files found are eligible for import in"

// MissingFiles is remove_missing_files (spec §4.4): either status ==
// "warning" with errorMessage in the missing-files set, or status ==
// "completed" with a statusMessage carrying the missingFilesImportPrefix.
// Blocklist false, no strikes (immediate).
type MissingFiles struct{ base }

// NewMissingFiles constructs the job.
func NewMissingFiles() *MissingFiles {
	return &MissingFiles{base{name: "remove_missing_files", scope: domain.ScopeNormal}}
}

func (j *MissingFiles) Predicate(_ context.Context, items []domain.QueueItem) ([]domain.QueueItem, error) {
	var out []domain.QueueItem
	for _, item := range items {
		if item.Status == "warning" {
			if _, ok := missingFilesErrorMessages[item.ErrorMessage]; ok {
				out = append(out, item)
				continue
			}
		}
		if item.Status == "completed" {
			for _, msg := range item.StatusMessages {
				if strings.HasPrefix(msg, missingFilesImportPrefix) {
					out = append(out, item)
					break
				}
			}
		}
	}
	return out, nil
}
