package report

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/srodi/itop/pkg/types"
)

var t0 = time.Unix(1700000000, 0)

func snap(pid int32, cpu time.Duration, at time.Time) types.RawProcessSnapshot {
	return types.RawProcessSnapshot{
		Identity:  types.ProcessIdentity{PID: pid, StartTime: 1},
		Name:      "proc",
		CPUTime:   cpu,
		RSSBytes:  64 << 20,
		SampledAt: at,
	}
}

func TestCalculateHalfCore(t *testing.T) {
	// 100 ticks -> 150 ticks of 10ms over one second on a single core.
	prev := snap(1, 100*10*time.Millisecond, t0)
	cur := snap(1, 150*10*time.Millisecond, t0.Add(time.Second))

	rec, err := Calculate(cur, &prev, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(rec.CPUPercent-50) > 1e-9 {
		t.Fatalf("expected 50%% CPU, got %.4f", rec.CPUPercent)
	}
	if rec.MemoryPercent != 0 {
		t.Fatalf("memory percent needs total memory, got %.2f", rec.MemoryPercent)
	}
}

func TestCalculateClampsToCores(t *testing.T) {
	prev := snap(1, 0, t0)
	cur := snap(1, 5*time.Second, t0.Add(time.Second))

	rec, err := Calculate(cur, &prev, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CPUPercent != 200 {
		t.Fatalf("expected clamp at 200%%, got %.2f", rec.CPUPercent)
	}

	// counter went backwards (e.g. a source restarted accounting)
	backwards := snap(1, 0, t0.Add(2*time.Second))
	rec, err = Calculate(backwards, &cur, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CPUPercent != 0 {
		t.Fatalf("expected clamp at 0%%, got %.2f", rec.CPUPercent)
	}

	rec, _ = Calculate(cur, &prev, 0, 0)
	if rec.CPUPercent != 100 {
		t.Fatalf("zero cores should be treated as one, got %.2f", rec.CPUPercent)
	}
}

func TestCalculateColdStart(t *testing.T) {
	cur := snap(9, 42*time.Second, t0)

	rec, err := Calculate(cur, nil, 4, 256<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CPUPercent != 0 {
		t.Fatalf("cold start must report 0%%, got %.2f", rec.CPUPercent)
	}
	if rec.RSSBytes != 64<<20 || rec.MemoryPercent != 25 {
		t.Fatalf("unexpected memory: %+v", rec)
	}
}

func TestCalculateDegenerateInterval(t *testing.T) {
	prev := snap(1, time.Second, t0)
	for _, at := range []time.Time{t0, t0.Add(-time.Second)} {
		cur := snap(1, 2*time.Second, at)
		if _, err := Calculate(cur, &prev, 1, 0); !errors.Is(err, ErrDegenerateInterval) {
			t.Fatalf("expected ErrDegenerateInterval at %v, got %v", at, err)
		}
	}
}

func TestBuildRecordsRetainsPreviousOnDegenerate(t *testing.T) {
	id := types.ProcessIdentity{PID: 1, StartTime: 1}
	prevSnaps := map[types.ProcessIdentity]types.RawProcessSnapshot{id: snap(1, time.Second, t0)}
	prevRecord := types.ProcessRecord{Identity: id, Name: "proc", CPUPercent: 37.5, RSSBytes: 1234, MemoryPercent: 1}
	prevRecords := map[types.ProcessIdentity]types.ProcessRecord{id: prevRecord}

	current := []types.RawProcessSnapshot{
		snap(1, 3*time.Second, t0), // clock did not advance
		snap(2, time.Second, t0),   // new process
	}
	res := BuildRecords(current, prevSnaps, prevRecords, 1, 0)

	if res.Degenerate != 1 {
		t.Fatalf("expected one degenerate identity, got %d", res.Degenerate)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if res.Records[0] != prevRecord {
		t.Fatalf("expected previous record to be retained exactly, got %+v", res.Records[0])
	}
	if res.ByIdentity[id] != prevRecord {
		t.Fatalf("index disagrees with records: %+v", res.ByIdentity[id])
	}
	if res.Records[1].CPUPercent != 0 {
		t.Fatalf("new process should cold start, got %.2f", res.Records[1].CPUPercent)
	}
}

func TestBuildRecordsDegenerateWithoutPriorRecord(t *testing.T) {
	id := types.ProcessIdentity{PID: 1, StartTime: 1}
	prevSnaps := map[types.ProcessIdentity]types.RawProcessSnapshot{id: snap(1, time.Second, t0)}

	res := BuildRecords([]types.RawProcessSnapshot{snap(1, 2*time.Second, t0)}, prevSnaps, nil, 1, 0)
	if res.Degenerate != 1 || len(res.Records) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Records[0].CPUPercent != 0 || res.Records[0].Identity != id {
		t.Fatalf("expected cold-start fallback, got %+v", res.Records[0])
	}
}

func TestBuildRecordsSkipsDuplicateIdentities(t *testing.T) {
	current := []types.RawProcessSnapshot{snap(5, 0, t0), snap(5, time.Second, t0)}
	res := BuildRecords(current, nil, nil, 1, 0)
	if len(res.Records) != 1 {
		t.Fatalf("expected duplicate to be dropped, got %d records", len(res.Records))
	}
}

func TestBuildRecordsPidReuseIsColdStart(t *testing.T) {
	old := types.ProcessIdentity{PID: 7, StartTime: 100}
	prevSnaps := map[types.ProcessIdentity]types.RawProcessSnapshot{old: {Identity: old, CPUTime: 0, SampledAt: t0}}

	reused := types.RawProcessSnapshot{
		Identity:  types.ProcessIdentity{PID: 7, StartTime: 200},
		CPUTime:   10 * time.Second,
		SampledAt: t0.Add(time.Second),
	}
	res := BuildRecords([]types.RawProcessSnapshot{reused}, prevSnaps, nil, 8, 0)
	if res.Records[0].CPUPercent != 0 {
		t.Fatalf("reused pid must not diff against the old process, got %.2f", res.Records[0].CPUPercent)
	}
}
