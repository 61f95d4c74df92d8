package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues("PASS", "bash"))
	RecordRun("PASS", "bash", 250*time.Millisecond)
	after := testutil.ToFloat64(runsTotal.WithLabelValues("PASS", "bash"))
	if after-before != 1 {
		t.Errorf("runs_total delta = %v, want 1", after-before)
	}
}

func TestRecordPersistenceError(t *testing.T) {
	before := testutil.ToFloat64(persistenceErrorsTotal.WithLabelValues("save"))
	RecordPersistenceError("save")
	if got := testutil.ToFloat64(persistenceErrorsTotal.WithLabelValues("save")) - before; got != 1 {
		t.Errorf("persistence_errors_total delta = %v, want 1", got)
	}
}

func TestSetStoredRecords(t *testing.T) {
	SetStoredRecords(7)
	if got := testutil.ToFloat64(storedRecords); got != 7 {
		t.Errorf("stored_records = %v, want 7", got)
	}
}
