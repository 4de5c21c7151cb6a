// Package errors records the per-element failures of a pipeline run so that
// processing can continue and an end-of-run summary can be produced.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pptx-translator/internal/types"
)

// ErrorRecord 错误记录
type ErrorRecord struct {
	Stage     types.Stage     `json:"stage"`
	Code      types.ErrorCode `json:"code"`
	Location  string          `json:"location"` // e.g. slide[3]/shape[42]/p[0]
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// Summary counts records by stage and code.
type Summary struct {
	RunID   string                                  `json:"run_id"`
	Total   int                                     `json:"total"`
	ByCode  map[types.ErrorCode]int                 `json:"by_code"`
	ByStage map[types.Stage]map[types.ErrorCode]int `json:"by_stage"`
}

// Count returns the number of records with code across all stages.
func (s *Summary) Count(code types.ErrorCode) int {
	return s.ByCode[code]
}

// Codes returns the recorded codes in a stable order.
func (s *Summary) Codes() []types.ErrorCode {
	codes := make([]types.ErrorCode, 0, len(s.ByCode))
	for c := range s.ByCode {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// ErrorManager 错误管理器. Safe for concurrent use.
type ErrorManager struct {
	runID   string
	mu      sync.RWMutex
	records []*ErrorRecord
	now     func() time.Time
}

// NewErrorManager 创建新的错误管理器
func NewErrorManager() *ErrorManager {
	return &ErrorManager{
		runID: uuid.NewString(),
		now:   time.Now,
	}
}

// RunID identifies the run in saved issue files.
func (em *ErrorManager) RunID() string {
	return em.runID
}

// RecordError 记录错误
func (em *ErrorManager) RecordError(stage types.Stage, code types.ErrorCode, location, msg string) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.records = append(em.records, &ErrorRecord{
		Stage:     stage,
		Code:      code,
		Location:  location,
		Message:   msg,
		Timestamp: em.now(),
	})
}

// Record stores err under the code carried by its AppError chain.
func (em *ErrorManager) Record(stage types.Stage, location string, err error) {
	if err == nil {
		return
	}
	em.RecordError(stage, types.CodeOf(err), location, err.Error())
}

// ListErrors returns copies of the records in insertion order.
func (em *ErrorManager) ListErrors() []ErrorRecord {
	em.mu.RLock()
	defer em.mu.RUnlock()
	out := make([]ErrorRecord, len(em.records))
	for i, r := range em.records {
		out[i] = *r
	}
	return out
}

// Len returns the number of records.
func (em *ErrorManager) Len() int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.records)
}

// Summary aggregates the records.
func (em *ErrorManager) Summary() *Summary {
	em.mu.RLock()
	defer em.mu.RUnlock()

	s := &Summary{
		RunID:   em.runID,
		Total:   len(em.records),
		ByCode:  make(map[types.ErrorCode]int),
		ByStage: make(map[types.Stage]map[types.ErrorCode]int),
	}
	for _, r := range em.records {
		s.ByCode[r.Code]++
		if s.ByStage[r.Stage] == nil {
			s.ByStage[r.Stage] = make(map[types.ErrorCode]int)
		}
		s.ByStage[r.Stage][r.Code]++
	}
	return s
}

type issueFile struct {
	Summary *Summary      `json:"summary"`
	Records []ErrorRecord `json:"records"`
}

// Save writes the summary and all records as JSON. Nothing is written
// when the run recorded no issues.
func (em *ErrorManager) Save(path string) error {
	if em.Len() == 0 {
		return nil
	}
	data, err := json.MarshalIndent(issueFile{Summary: em.Summary(), Records: em.ListErrors()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal issues: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create issues directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write issues file: %w", err)
	}
	return nil
}

// LoadRecords reads an issues file written by Save.
func LoadRecords(path string) ([]ErrorRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read issues file: %w", err)
	}
	var f issueFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issues: %w", err)
	}
	return f.Records, nil
}

// IssuesPath returns the issues file name used for a stage output.
func IssuesPath(output string) string {
	return output + ".issues.json"
}

// GetCodeDisplayName returns a short human label for a code.
func GetCodeDisplayName(code types.ErrorCode) string {
	switch code {
	case types.ErrStructuralMismatch:
		return "structural mismatch"
	case types.ErrIdentityNotFound:
		return "identity not found"
	case types.ErrExtractionDegraded:
		return "extraction degraded"
	case types.ErrAPIRateLimit:
		return "rate limited"
	case types.ErrNetwork:
		return "network failure"
	case types.ErrAPICall:
		return "API failure"
	case types.ErrIO:
		return "I/O failure"
	default:
		return string(code)
	}
}
