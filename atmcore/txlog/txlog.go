package txlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrRecordNotFound is returned when completing a record that was never
// opened.
var ErrRecordNotFound = errors.New("transaction record not found")

// Status is the journal state of one transaction.
type Status string

const (
	// StatusPending marks a record opened before validation finished.
	StatusPending Status = "PENDING"
	// StatusSuccess marks a transaction that passed its pipeline.
	StatusSuccess Status = "SUCCESS"
	// StatusFailed marks a transaction rejected by its pipeline.
	StatusFailed Status = "FAILED"
)

// Record is one journaled transaction.
type Record struct {
	ID             string          `json:"id"`
	RRN            string          `json:"rrn"`
	STAN           string          `json:"stan"`
	CardToken      string          `json:"cardToken"`
	ATMCode        string          `json:"atmCode"`
	ProcessingCode string          `json:"processingCode"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         Status          `json:"status"`
	ErrorCode      string          `json:"errorCode,omitempty"`
	Message        string          `json:"message,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	CompletedAt    time.Time       `json:"completedAt"`
}

// Recorder is the journaling collaborator consumed by the transaction
// service.
type Recorder interface {
	// Create opens a pending record, assigning ID, RRN, STAN and CreatedAt.
	Create(ctx context.Context, record Record) (Record, error)

	// Complete closes the record with the pipeline outcome.
	Complete(ctx context.Context, id string, status Status, errorCode, message string) (Record, error)

	// DailyCount returns how many transactions the card journaled on the
	// given day.
	DailyCount(ctx context.Context, cardToken string, day time.Time) (int, error)

	// NewRRN mints a unique retrieval reference number.
	NewRRN() string

	// NewSTAN mints the next system trace audit number.
	NewSTAN() string
}

// MemoryRecorder is an in-memory Recorder for single-process deployments and
// tests.
type MemoryRecorder struct {
	mu      sync.RWMutex
	records map[string]*Record
	stan    atomic.Uint64
	now     func() time.Time
}

// NewMemoryRecorder returns an empty in-memory journal.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

func (r *MemoryRecorder) Create(_ context.Context, record Record) (Record, error) {
	record.ID = uuid.New().String()
	record.STAN = r.NewSTAN()
	record.RRN = r.NewRRN()
	record.Status = StatusPending
	record.CreatedAt = r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := record
	r.records[record.ID] = &stored

	return record, nil
}

func (r *MemoryRecorder) Complete(_ context.Context, id string, status Status, errorCode, message string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	record.Status = status
	record.ErrorCode = errorCode
	record.Message = message
	record.CompletedAt = r.now()

	return *record, nil
}

func (r *MemoryRecorder) DailyCount(_ context.Context, cardToken string, day time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	year, month, date := day.Date()
	count := 0

	for _, record := range r.records {
		if record.CardToken != cardToken {
			continue
		}

		ry, rm, rd := record.CreatedAt.Date()
		if ry == year && rm == month && rd == date {
			count++
		}
	}

	return count, nil
}

// NewSTAN returns the next six-digit system trace audit number, rolling over
// after 999999.
func (r *MemoryRecorder) NewSTAN() string {
	next := r.stan.Add(1) % 1_000_000

	return fmt.Sprintf("%06d", next)
}

// NewRRN returns a twelve-character retrieval reference number in the
// conventional yDDDHHnnnnnn layout: last digit of the year, day of year,
// hour, then a six-digit trace component.
func (r *MemoryRecorder) NewRRN() string {
	now := r.now().UTC()

	return fmt.Sprintf("%01d%03d%02d%06d",
		now.Year()%10,
		now.YearDay(),
		now.Hour(),
		r.stan.Load()%1_000_000,
	)
}
