package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/utils"
)

const (
	reportPrefix = "svcctl-summary-"
	reportSuffix = ".json"
	reportDate   = "20060102"
)

// TargetLine is one target's row in the summary report.
type TargetLine struct {
	Host       string `json:"host,omitempty"`
	Service    string `json:"service"`
	Action     string `json:"action"`
	FinalState string `json:"final_state,omitempty"`
	Satisfied  bool   `json:"satisfied"`
	Diagnostic string `json:"diagnostic,omitempty"`
	Error      string `json:"error,omitempty"`
	ElapsedMS  int64  `json:"elapsed_ms"`
}

// Summary aggregates one batch run.
type Summary struct {
	GeneratedAt    string       `json:"generated_at"`
	Initiator      string       `json:"initiator,omitempty"`
	Total          int          `json:"total"`
	Satisfied      int          `json:"satisfied"`
	Degraded       int          `json:"degraded"`
	Failed         int          `json:"failed"`
	SuccessRate    float64      `json:"success_rate"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	Targets        []TargetLine `json:"targets"`
}

// BuildSummary folds a run's results into a summary. Degraded means the
// action ran but left diagnostics behind; failed means it never produced
// an outcome at all.
func BuildSummary(results []Result, initiator string, elapsed time.Duration) Summary {
	s := Summary{
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		Initiator:      initiator,
		Total:          len(results),
		ElapsedSeconds: utils.Round(elapsed.Seconds()),
		Targets:        make([]TargetLine, 0, len(results)),
	}

	for _, res := range results {
		line := TargetLine{
			Host:    res.Host,
			Service: res.Service,
			Action:  string(res.Action),
		}

		switch {
		case res.Err != nil:
			s.Failed++
			line.Error = res.Err.Error()
		case res.Outcome.Satisfied():
			s.Satisfied++
			line.Satisfied = true
		default:
			s.Degraded++
		}

		if res.Err == nil {
			line.FinalState = res.Outcome.FinalState.String()
			line.Diagnostic = res.Outcome.Diagnostic
			line.ElapsedMS = res.Outcome.Elapsed.Milliseconds()
		}

		s.Targets = append(s.Targets, line)
	}

	s.SuccessRate = utils.Percent(s.Satisfied, s.Total)
	return s
}

// WriteSummary writes the summary to <dir>/svcctl-summary-YYYYMMDD.json
// atomically and purges reports older than retentionDays. Zero retention
// keeps everything. It returns the path written.
func WriteSummary(logger *zap.Logger, dir string, s Summary, retentionDays int) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	name := reportPrefix + time.Now().Format(reportDate) + reportSuffix
	path := filepath.Join(dir, name)

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write summary %s: %w", path, err)
	}

	logger.Info("Wrote batch summary",
		zap.String("path", path),
		zap.Int("total", s.Total),
		zap.Int("satisfied", s.Satisfied),
		zap.Float64("success_rate", s.SuccessRate))

	if retentionDays > 0 {
		purgeOldReports(logger, dir, retentionDays)
	}
	return path, nil
}

// purgeOldReports removes summary files whose filename date is past the
// retention window. Files that do not match the report naming stay put.
func purgeOldReports(logger *zap.Logger, dir string, retentionDays int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("Failed to list report dir for purge",
			zap.String("dir", dir),
			zap.Error(err))
		return
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		day, ok := reportDay(entry.Name())
		if !ok || !day.Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("Failed to purge old report",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		logger.Debug("Purged old report", zap.String("path", path))
	}
}

// reportDay extracts the date from a report filename, reporting false for
// anything that is not a summary report.
func reportDay(name string) (time.Time, bool) {
	if len(name) != len(reportPrefix)+len(reportDate)+len(reportSuffix) {
		return time.Time{}, false
	}
	if name[:len(reportPrefix)] != reportPrefix || name[len(name)-len(reportSuffix):] != reportSuffix {
		return time.Time{}, false
	}

	day, err := time.Parse(reportDate, name[len(reportPrefix):len(name)-len(reportSuffix)])
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
