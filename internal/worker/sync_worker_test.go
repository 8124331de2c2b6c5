package worker

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"salesdash/internal/amqp"
	"salesdash/internal/core"
)

type fakeUpstream struct {
	records []core.UnitSaleRecord
	err     error
}

func (f *fakeUpstream) FetchRecords(_ context.Context, q core.Query) ([]core.UnitSaleRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []core.UnitSaleRecord
	for _, r := range f.records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeUpstream) ListProjects(context.Context) ([]string, error) { return nil, nil }

type fakeMirror struct {
	mu       sync.Mutex
	projects map[string][]core.UnitSaleRecord
	failOn   string
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{projects: map[string][]core.UnitSaleRecord{}}
}

func (m *fakeMirror) ReplaceProject(_ context.Context, project string, records []core.UnitSaleRecord) error {
	if project == m.failOn {
		return errors.New("disk full")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(records) == 0 {
		delete(m.projects, project)
		return nil
	}
	m.projects[project] = append([]core.UnitSaleRecord(nil), records...)
	return nil
}

func (m *fakeMirror) ListProjects(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.projects))
	for k := range m.projects {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

func (m *fakeMirror) CountRecords(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, recs := range m.projects {
		n += int64(len(recs))
	}
	return n, nil
}

func upstreamRecords() []core.UnitSaleRecord {
	return []core.UnitSaleRecord{
		{Project: "해운대 1차", ProductType: core.Apartment, UnitID: "1"},
		{Project: "해운대 1차", ProductType: core.Apartment, UnitID: "2"},
		{Project: "해운대 1차 2단지", ProductType: core.Officetel, UnitID: "3"},
		{Project: "센텀 2차", ProductType: core.Apartment, UnitID: "4"},
		{Project: "", ProductType: core.Apartment, UnitID: "5"},
	}
}

func TestSyncProject_ExactMatchOnly(t *testing.T) {
	mirror := newFakeMirror()
	w := NewSyncWorker(&fakeUpstream{records: upstreamRecords()}, mirror, 2)

	n, err := w.SyncProject(context.Background(), "해운대 1차")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n != 2 || len(mirror.projects["해운대 1차"]) != 2 {
		t.Fatalf("synced %d, mirror = %v", n, mirror.projects)
	}
	if _, err := w.SyncProject(context.Background(), " "); !errors.Is(err, core.ErrEmptyProject) {
		t.Fatalf("want ErrEmptyProject, got %v", err)
	}
}

func TestSyncAll(t *testing.T) {
	mirror := newFakeMirror()
	w := NewSyncWorker(&fakeUpstream{records: upstreamRecords()}, mirror, 2)

	res, err := w.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("sync all: %v", err)
	}
	if res.Projects != 3 || res.Records != 4 {
		t.Fatalf("result = %+v", res)
	}
	var names []string
	for k := range mirror.projects {
		names = append(names, k)
	}
	sort.Strings(names)
	if len(names) != 3 {
		t.Fatalf("mirrored projects = %v", names)
	}
}

func TestSyncAll_PartialFailure(t *testing.T) {
	mirror := newFakeMirror()
	mirror.failOn = "센텀 2차"
	w := NewSyncWorker(&fakeUpstream{records: upstreamRecords()}, mirror, 1)

	res, err := w.SyncAll(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(res.Failed) != 1 || res.Failed[0] != "센텀 2차" || res.Records != 3 {
		t.Fatalf("result = %+v", res)
	}
}

func TestSyncAll_RemovesProjectsDeletedUpstream(t *testing.T) {
	tests := []struct {
		name        string
		upstream    []core.UnitSaleRecord
		wantMirror  []string
		wantRemoved []string
	}{
		{
			name:        "project dropped from sheet",
			upstream:    []core.UnitSaleRecord{{Project: "신규사업", ProductType: core.Apartment, UnitID: "1"}},
			wantMirror:  []string{"신규사업"},
			wantRemoved: []string{"철거된사업"},
		},
		{
			name:        "sheet emptied",
			upstream:    nil,
			wantMirror:  []string{},
			wantRemoved: []string{"철거된사업"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mirror := newFakeMirror()
			mirror.projects["철거된사업"] = []core.UnitSaleRecord{{Project: "철거된사업", ProductType: core.Apartment, UnitID: "9"}}
			w := NewSyncWorker(&fakeUpstream{records: tt.upstream}, mirror, 2)

			res, err := w.SyncAll(context.Background())
			if err != nil {
				t.Fatalf("sync all: %v", err)
			}
			got, _ := mirror.ListProjects(context.Background())
			if !reflect.DeepEqual(got, tt.wantMirror) {
				t.Errorf("mirrored projects = %v, want %v", got, tt.wantMirror)
			}
			if !reflect.DeepEqual(res.Removed, tt.wantRemoved) {
				t.Errorf("removed = %v, want %v", res.Removed, tt.wantRemoved)
			}
		})
	}
}

func TestSyncAll_UpstreamError(t *testing.T) {
	w := NewSyncWorker(&fakeUpstream{err: core.ErrSourceUnavailable}, newFakeMirror(), 1)
	if _, err := w.SyncAll(context.Background()); !errors.Is(err, core.ErrSourceUnavailable) {
		t.Fatalf("want source error, got %v", err)
	}
}

func TestHandleRefreshMessage(t *testing.T) {
	mirror := newFakeMirror()
	w := NewSyncWorker(&fakeUpstream{records: upstreamRecords()}, mirror, 2)

	if err := w.HandleRefreshMessage(context.Background(), amqp.NewRefreshMessage("센텀 2차", "manual")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(mirror.projects) != 1 {
		t.Fatalf("mirror = %v", mirror.projects)
	}
	if err := w.HandleRefreshMessage(context.Background(), amqp.NewRefreshMessage("", "scheduled")); err != nil {
		t.Fatalf("handle all: %v", err)
	}
	if len(mirror.projects) != 3 {
		t.Fatalf("mirror = %v", mirror.projects)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	mirror := newFakeMirror()
	up := &fakeUpstream{records: upstreamRecords()}
	w := NewSyncWorker(up, mirror, 2)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if n, _ := mirror.CountRecords(context.Background()); n != 4 {
		t.Fatalf("mirrored %d records", n)
	}

	// A populated mirror is left alone.
	up.err = errors.New("should not be called")
	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("startup on populated mirror: %v", err)
	}
}

func TestRunPeriodic_StopsOnCancel(t *testing.T) {
	w := NewSyncWorker(&fakeUpstream{}, newFakeMirror(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.RunPeriodic(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodic did not stop")
	}
}
