package handlers

import (
	"bytes"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
)

func TestParseJobsCSV_DerivesMissingFields(t *testing.T) {
	content := "worker_id,scheduled_at,service_type,zone\n" +
		"w1,2026-08-01T10:00:00Z,Premium Laundry Bundle,north\n" +
		"w2,not-a-timestamp,Exterior Car Wash,south\n"
	fh := makeMultipartFile(t, "jobs", "jobs.csv", content)

	jobs, errs := parseJobsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	if !strings.HasPrefix(jobs[0].ID, "JOB-") {
		t.Fatalf("expected derived id, got %q", jobs[0].ID)
	}
	if jobs[0].Status != "assigned" {
		t.Fatalf("expected default status assigned, got %q", jobs[0].Status)
	}
	if jobs[0].Category != models.ServiceLaundry {
		t.Fatalf("expected laundry category, got %q", jobs[0].Category)
	}
	if jobs[0].ScheduledAt == nil {
		t.Fatal("expected parsed scheduled_at")
	}

	if jobs[1].ScheduledAt != nil {
		t.Fatal("unparseable scheduled_at should stay nil")
	}
	if jobs[1].Category != models.ServiceCarWash {
		t.Fatalf("expected car_wash category, got %q", jobs[1].Category)
	}
}

func TestParseJobsCSV_DerivedIDsAreStable(t *testing.T) {
	content := "worker_id,scheduled_at,service_type,zone\nw1,2026-08-01T10:00:00Z,Cleaning,east\n"
	first, _ := parseJobsCSV(makeMultipartFile(t, "jobs", "jobs.csv", content))
	second, _ := parseJobsCSV(makeMultipartFile(t, "jobs", "jobs.csv", content))
	if first[0].ID != second[0].ID {
		t.Fatalf("re-import produced different ids: %q vs %q", first[0].ID, second[0].ID)
	}
}

func TestParseJobsCSV_AlternateHeaders(t *testing.T) {
	content := "order_id,schedule,state,bubbler_id,service,area\n" +
		"o-9,2026-08-02T09:00:00Z,ASSIGNED,w3,Deep Cleaning,west\n"
	jobs, errs := parseJobsCSV(makeMultipartFile(t, "jobs", "jobs.csv", content))
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if jobs[0].ID != "o-9" || jobs[0].WorkerID != "w3" || jobs[0].Zone != "west" {
		t.Fatalf("alternate headers not resolved: %+v", jobs[0])
	}
	if jobs[0].Status != "assigned" {
		t.Fatalf("status not lowercased: %q", jobs[0].Status)
	}
}

func TestParseShiftsCSV_OneActivePerLead(t *testing.T) {
	content := "id,lead_id,zone,starts_at,ends_at,status\n" +
		"s1,lead-1,north,2026-08-01T08:00:00Z,2026-08-01T16:00:00Z,active\n" +
		"s2,lead-1,north,2026-08-01T17:00:00Z,2026-08-01T23:00:00Z,active\n" +
		"s3,lead-2,south,2026-08-01T08:00:00Z,2026-08-01T16:00:00Z,active\n"
	shifts, errs := parseShiftsCSV(makeMultipartFile(t, "shifts", "shifts.csv", content))
	if len(errs) != 1 {
		t.Fatalf("expected 1 error for the duplicate active shift, got %v", errs)
	}
	if len(shifts) != 2 {
		t.Fatalf("expected 2 shifts kept, got %d", len(shifts))
	}
	if shifts[0].ID != "s1" || shifts[1].ID != "s3" {
		t.Fatalf("wrong shifts kept: %q, %q", shifts[0].ID, shifts[1].ID)
	}
}

func TestParseShiftsCSV_RowValidation(t *testing.T) {
	content := "id,lead_id,starts_at,ends_at\n" +
		",,2026-08-01T08:00:00Z,2026-08-01T16:00:00Z\n" +
		"s2,lead-1,garbage,2026-08-01T16:00:00Z\n" +
		",lead-2,2026-08-01T08:00:00Z,2026-08-01T16:00:00Z\n"
	shifts, errs := parseShiftsCSV(makeMultipartFile(t, "shifts", "shifts.csv", content))
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if len(shifts) != 1 {
		t.Fatalf("expected 1 valid shift, got %d", len(shifts))
	}
	if !strings.HasPrefix(shifts[0].ID, "SHIFT-") {
		t.Fatalf("expected derived shift id, got %q", shifts[0].ID)
	}
}

func TestParseMetricsCSV_Defaults(t *testing.T) {
	content := "lead_id,avg_rating,on_time_rate,complaints,missed\n" +
		"lead-1,4.6,96,1,0\n" +
		",4.9,99,0,0\n"
	metrics, errs := parseMetricsCSV(makeMultipartFile(t, "metrics", "metrics.csv", content))
	if len(errs) != 1 {
		t.Fatalf("expected 1 error for missing lead_id, got %v", errs)
	}
	if len(metrics) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(metrics))
	}
	m := metrics[0]
	if m.WindowDays != 30 {
		t.Fatalf("expected default window 30, got %d", m.WindowDays)
	}
	if m.AvgRating != 4.6 || m.OnTimeRate != 96 || m.ComplaintCount != 1 || m.MissedCheckins != 0 {
		t.Fatalf("fields not parsed: %+v", m)
	}
	if m.CapturedAt.IsZero() {
		t.Fatal("expected captured_at fallback")
	}
}

func TestValidateExt(t *testing.T) {
	if !validateExt("jobs.csv") || !validateExt("JOBS.CSV") {
		t.Fatal("csv extensions should pass")
	}
	if validateExt("jobs.xlsx") || validateExt("jobs") {
		t.Fatal("non-csv extensions should fail")
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}
