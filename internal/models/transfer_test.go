package models

import "testing"

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    ExportFormat
		wire    string
		wantErr bool
	}{
		{"", FormatBundle, "zip", false},
		{"bundle", FormatBundle, "zip", false},
		{"zip", FormatBundle, "zip", false},
		{"per-item", FormatPerItem, "individual", false},
		{"individual", FormatPerItem, "individual", false},
		{"tarball", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseExportFormat(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseExportFormat(%q) error = %v", tc.input, err)
			}
			if tc.wantErr {
				return
			}
			if got != tc.want || got.Wire() != tc.wire {
				t.Errorf("ParseExportFormat(%q) = %q/%q, want %q/%q", tc.input, got, got.Wire(), tc.want, tc.wire)
			}
		})
	}
}

func TestParseImportStatus(t *testing.T) {
	tests := []struct {
		input string
		want  ImportStatus
		ok    bool
	}{
		{"completed", ImportCompleted, true},
		{"completed-with-warnings", ImportCompletedWithWarnings, true},
		{"pending", ImportPending, true},
		{"failed", ImportFailed, true},
		{"processing", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseImportStatus(tc.input)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseImportStatus(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestImportStatus_Terminal(t *testing.T) {
	for _, s := range []ImportStatus{ImportCompleted, ImportCompletedWithWarnings, ImportFailed} {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	for _, s := range []ImportStatus{ImportSubmitted, ImportPending} {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}

func TestBatchImportResult_Tally(t *testing.T) {
	r := &BatchImportResult{Items: []BatchImportItem{
		{Filename: "a.yml", Success: true, Status: ImportCompleted},
		{Filename: "b.yml", Success: false, Status: ImportFailed},
		{Filename: "c.yml", Success: true, Status: ImportCompletedWithWarnings},
		{Filename: "d.yml", Success: true, Status: ImportPending},
		{Filename: "e.yml", Success: false},
	}}
	r.Tally()
	if r.SuccessCount != 1 || r.FailedCount != 2 || r.WarningCount != 2 || r.TotalCount != 5 {
		t.Errorf("Tally = success %d failed %d warning %d total %d, want 1/2/2/5",
			r.SuccessCount, r.FailedCount, r.WarningCount, r.TotalCount)
	}
	if r.SuccessCount+r.FailedCount+r.WarningCount != r.TotalCount {
		t.Error("counts do not add up to total")
	}
}
