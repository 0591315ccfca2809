package cpu

import (
	"errors"
	"os"
	"strings"
	"testing"
)

// stubProc serves /proc files from files, keyed by path suffix.
func stubProc(t *testing.T, files map[string]string) *int {
	t.Helper()
	t.Cleanup(func() { procReadFile = os.ReadFile })
	reads := 0
	procReadFile = func(path string) ([]byte, error) {
		reads++
		for suffix, body := range files {
			if strings.HasSuffix(path, suffix) {
				return []byte(body), nil
			}
		}
		return nil, os.ErrNotExist
	}
	return &reads
}

func TestCStrStopsAtNUL(t *testing.T) {
	var comm [16]byte
	copy(comm[:], "postgres")
	if got := cStr(comm[:]); got != "postgres" {
		t.Fatalf("got %q", got)
	}
	full := []byte("0123456789abcdef")
	if got := cStr(full); got != string(full) {
		t.Fatalf("unterminated buffer: got %q", got)
	}
}

func TestCommForPIDCachesHitsAndFallbacks(t *testing.T) {
	reads := stubProc(t, map[string]string{"/77/comm": "nginx\n", "/78/comm": "  \n"})
	cache := map[uint32]string{}

	for i := 0; i < 3; i++ {
		if got := commForPID(77, cache); got != "nginx" {
			t.Fatalf("pid 77: got %q", got)
		}
	}
	if *reads != 1 {
		t.Fatalf("expected one read for a cached comm, got %d", *reads)
	}
	if got := commForPID(78, cache); got != "pid-78" {
		t.Fatalf("blank comm: got %q", got)
	}
	if got := commForPID(79, cache); got != "pid-79" {
		t.Fatalf("missing comm: got %q", got)
	}
	if got := commForPID(0, cache); got != "idle" {
		t.Fatalf("pid 0: got %q", got)
	}
}

func TestStatForPID(t *testing.T) {
	stubProc(t, map[string]string{
		// a comm with spaces and ')' must not shift the fields
		"/321/stat": "321 (we)ird name) S 1 321 321 0 -1 4194560 1 0 0 0 5 3 0 0 20 0 1 0 98765 1000 200 18446744073709551615\n",
		"/322/stat": "322 (short) S 1 2",
		"/323/stat": "323 no parens here",
		"/324/stat": "324 (bad) S x 1 1 0 -1 0 0 0 0 0 0 0 0 0 20 0 1 0 5 0 0",
	})

	st, err := statForPID(321)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.PPID != 1 || st.StartTick != 98765 {
		t.Fatalf("unexpected stat: %+v", st)
	}

	for _, pid := range []uint32{322, 323, 324} {
		if _, err := statForPID(pid); err == nil {
			t.Fatalf("pid %d: expected parse error", pid)
		}
	}
	if _, err := statForPID(999); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing pid error, got %v", err)
	}
}
