package models

import (
	"sync"
	"testing"
	"time"
)

func TestJobStore_CreateGet(t *testing.T) {
	store := NewJobStore()
	job := store.Create("batch-export", "prod")
	if job.ID == "" {
		t.Fatal("Create did not assign an ID")
	}
	if job.Status != JobRunning {
		t.Errorf("Status = %q, want running", job.Status)
	}
	if store.Get(job.ID) != job {
		t.Error("Get did not return the created job")
	}
	if store.Get("missing") != nil {
		t.Error("Get(missing) should return nil")
	}
}

func TestJob_Logs(t *testing.T) {
	job := NewJobStore().Create("batch-import", "prod")
	job.AppendLog("one")
	job.AppendLog("two")
	job.AppendLog("three")

	if got := job.LogsSince(1); len(got) != 2 || got[0] != "two" {
		t.Errorf("LogsSince(1) = %v, want [two three]", got)
	}
	if got := job.LogsSince(3); got != nil {
		t.Errorf("LogsSince(3) = %v, want nil", got)
	}
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJobStore().Create("batch-export", "")
	job.SetProgress(Progress{Current: 0, Total: 4})
	job.SetProgress(Progress{Current: 3, Total: 4})
	job.SetProgress(Progress{Current: 1, Total: 4})
	if job.Progress.Current != 3 {
		t.Errorf("Progress.Current = %d, want 3 (monotonic)", job.Progress.Current)
	}
	if job.Done() {
		t.Error("job should not be done yet")
	}

	job.Complete(map[string]int{"success_count": 3})
	if !job.Done() || job.Status != JobCompleted || job.FinishedAt == nil {
		t.Errorf("after Complete: status=%q finished=%v", job.Status, job.FinishedAt)
	}

	failed := NewJobStore().Create("batch-import", "")
	failed.Fail("no target instance selected")
	if failed.Status != JobFailed || failed.Error == "" {
		t.Errorf("after Fail: status=%q error=%q", failed.Status, failed.Error)
	}
}

func TestJobStore_ListOrder(t *testing.T) {
	store := NewJobStore()
	first := store.Create("a", "")
	first.StartedAt = time.Now().Add(-time.Minute)
	second := store.Create("b", "")

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("List() returned %d jobs, want 2", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("List()[0] = %s, want most recent job first", list[0].Type)
	}
}

func TestJob_ConcurrentLogs(t *testing.T) {
	job := NewJobStore().Create("probe-all", "")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			job.AppendLog("line")
		}()
		go func() {
			defer wg.Done()
			job.Snapshot()
		}()
	}
	wg.Wait()
	if got := len(job.LogsSince(0)); got != 50 {
		t.Errorf("len(logs) = %d, want 50", got)
	}
}
