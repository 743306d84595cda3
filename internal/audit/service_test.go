package audit

import (
	"context"
	"testing"
	"time"
)

type stubRepo struct {
	rows    []TimelineRow
	gotOff  int
	gotLim  int
	filters TimelineFilters
}

func (r *stubRepo) TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	r.filters = filters
	r.gotOff = offset
	r.gotLim = limit
	if offset >= len(r.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.rows) {
		end = len(r.rows)
	}
	return r.rows[offset:end], nil
}

func (r *stubRepo) TimelineAll(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	r.filters = filters
	return r.rows, nil
}

func makeRows(n int) []TimelineRow {
	rows := make([]TimelineRow, n)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = TimelineRow{
			At:       base.Add(-time.Duration(i) * time.Minute),
			Actor:    "acc-1",
			Action:   "campaign.update",
			Entity:   "campaign",
			EntityID: "c-1",
		}
	}
	return rows
}

func TestTimelineWindowPaging(t *testing.T) {
	repo := &stubRepo{rows: makeRows(25)}
	service := NewService(repo)

	result, err := service.Timeline(context.Background(), TimelineFilters{TenantID: "t1", Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 20 {
		t.Fatalf("rows = %d, want 20", len(result.Rows))
	}
	if !result.Paging.HasNext {
		t.Fatal("expected hasNext with look-ahead row")
	}
	if result.Paging.NextPage != 2 {
		t.Fatalf("nextPage = %d", result.Paging.NextPage)
	}
	if repo.gotLim != 21 {
		t.Fatalf("limit = %d, want pageSize+1", repo.gotLim)
	}

	result, err = service.Timeline(context.Background(), TimelineFilters{TenantID: "t1", Page: 2, PageSize: 20})
	if err != nil {
		t.Fatalf("timeline page 2: %v", err)
	}
	if len(result.Rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(result.Rows))
	}
	if result.Paging.HasNext {
		t.Fatal("page 2 must be the last page")
	}
	if result.Paging.PrevPage != 1 {
		t.Fatalf("prevPage = %d", result.Paging.PrevPage)
	}
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &stubRepo{rows: makeRows(5)}
	service := NewService(repo)

	if _, err := service.Timeline(context.Background(), TimelineFilters{TenantID: "t1", PageSize: 500}); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.gotLim != 51 {
		t.Fatalf("limit = %d, want clamp to 50+1", repo.gotLim)
	}
}

func TestTimelineRequiresTenant(t *testing.T) {
	service := NewService(&stubRepo{})
	if _, err := service.Timeline(context.Background(), TimelineFilters{}); err == nil {
		t.Fatal("tenantless timeline must fail")
	}
	if _, err := service.Export(context.Background(), TimelineFilters{}); err == nil {
		t.Fatal("tenantless export must fail")
	}
}

func TestExportCSV(t *testing.T) {
	exporter := NewExporter()
	payload, err := exporter.WriteCSV(makeRows(2))
	if err != nil {
		t.Fatalf("write csv: %v", err)
	}
	got := string(payload)
	want := "at,actor,action,entity,entity_id,meta\n"
	if len(got) <= len(want) || got[:len(want)] != want {
		t.Fatalf("csv header mismatch: %q", got)
	}
}
