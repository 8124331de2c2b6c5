package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"salesdash/internal/core"
	ports "salesdash/internal/sheets"
)

// Store keeps sales records and project pairs in process memory.
type Store struct {
	mu      sync.Mutex
	records []core.UnitSaleRecord
	layout  ports.Layout
	pairs   []core.ProjectPair
}

var (
	_ ports.RecordSource  = (*Store)(nil)
	_ ports.ProjectLister = (*Store)(nil)
	_ ports.PairRegistry  = (*Store)(nil)
	_ ports.ProjectWriter = (*Store)(nil)
)

func New(records []core.UnitSaleRecord) *Store {
	layout, _ := ports.ParseHeader([]string{"사업명", "상품", "동호수", "기준월"})
	return &Store{records: append([]core.UnitSaleRecord(nil), records...), layout: layout}
}

// NewFromFile seeds the store from a CSV export of the sales sheet. A missing
// file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return NewFromCSV(f)
}

// NewFromCSV decodes a header row plus data rows.
func NewFromCSV(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	records, layout, err := ports.DecodeTable(rows)
	if err != nil {
		return nil, err
	}
	return &Store{records: records, layout: layout}, nil
}

// FetchRecords returns the records selected by q.
func (s *Store) FetchRecords(_ context.Context, q core.Query) ([]core.UnitSaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, _ := ports.Select(s.records, q, s.layout)
	return out, nil
}

// ListProjects returns the distinct project names.
func (s *Store) ListProjects(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ports.Projects(s.records), nil
}

// ReplaceProject swaps every record of project for records.
func (s *Store) ReplaceProject(_ context.Context, project string, records []core.UnitSaleRecord) error {
	if strings.TrimSpace(project) == "" {
		return core.ErrEmptyProject
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0:0]
	for _, r := range s.records {
		if r.Project != project {
			kept = append(kept, r)
		}
	}
	s.records = append(kept, records...)
	return nil
}

// ListPairs returns pairs newest first.
func (s *Store) ListPairs(_ context.Context) ([]core.ProjectPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ProjectPair, 0, len(s.pairs))
	for i := len(s.pairs) - 1; i >= 0; i-- {
		out = append(out, s.pairs[i])
	}
	return out, nil
}

// AppendPair stores the pair and returns a synthetic row reference.
func (s *Store) AppendPair(_ context.Context, p core.ProjectPair) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = append(s.pairs, core.ProjectPair{Main: strings.TrimSpace(p.Main), Option: strings.TrimSpace(p.Option)})
	return fmt.Sprintf("mem:%d", len(s.pairs)), nil
}
