package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"tondev/internal/rules"
)

func newTestScheduler(t *testing.T, concurrency int, skipUnreadable bool, files map[string]string) *Scheduler {
	t.Helper()
	s, err := NewScheduler(rules.Builtin().List(), ScanOptions{}, concurrency, skipUnreadable, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.readFile = func(name string) ([]byte, error) {
		content, ok := files[name]
		if !ok {
			return nil, fs.ErrPermission
		}
		return []byte(content), nil
	}
	return s
}

func TestNewScheduler_RejectsBadConcurrency(t *testing.T) {
	if _, err := NewScheduler(nil, ScanOptions{}, 0, false, nil); err == nil {
		t.Fatal("expected error for concurrency 0")
	}
}

func TestScheduler_PreservesInputOrder(t *testing.T) {
	files := map[string]string{}
	var names []string
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("c%02d.fc", i)
		names = append(names, name)
		if i%2 == 0 {
			files[name] = mintContract
		} else {
			files[name] = bounceContract
		}
	}

	for _, concurrency := range []int{1, 4, 16} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			s := newTestScheduler(t, concurrency, false, files)
			out, err := s.Execute(context.Background(), names)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if len(out.Results) != len(names) {
				t.Fatalf("results = %d, want %d", len(out.Results), len(names))
			}
			for i, r := range out.Results {
				if r.File != names[i] {
					t.Fatalf("result %d is %s, want %s", i, r.File, names[i])
				}
			}
		})
	}
}

func TestScheduler_FailPolicy(t *testing.T) {
	s := newTestScheduler(t, 2, false, map[string]string{"a.fc": mintContract})

	_, err := s.Execute(context.Background(), []string{"a.fc", "locked.fc"})
	if !errors.Is(err, ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile, got %v", err)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected the read error to be wrapped, got %v", err)
	}
	var fe *FileError
	if !errors.As(err, &fe) || fe.Path != "locked.fc" {
		t.Fatalf("expected FileError for locked.fc, got %v", err)
	}
}

func TestScheduler_SkipPolicy(t *testing.T) {
	s := newTestScheduler(t, 2, true, map[string]string{
		"a.fc": mintContract,
		"c.fc": bounceContract,
	})

	out, err := s.Execute(context.Background(), []string{"a.fc", "locked.fc", "c.fc"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var got []string
	for _, r := range out.Results {
		got = append(got, r.File)
	}
	if !reflect.DeepEqual(got, []string{"a.fc", "c.fc"}) {
		t.Fatalf("scanned = %v", got)
	}
	if len(out.Skipped) != 1 || out.Skipped[0].Path != "locked.fc" {
		t.Fatalf("skipped = %v", out.Skipped)
	}
}

func TestScheduler_CanceledContext(t *testing.T) {
	s := newTestScheduler(t, 1, false, map[string]string{"a.fc": mintContract})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Execute(ctx, []string{"a.fc"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScheduler_BoundedConcurrency(t *testing.T) {
	const limit = 3
	var inFlight, peak atomic.Int32

	files := map[string]string{}
	var names []string
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("c%02d.fc", i)
		names = append(names, name)
		files[name] = cleanContract
	}

	s := newTestScheduler(t, limit, false, files)
	s.readFile = func(name string) ([]byte, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return []byte(files[name]), nil
	}

	if _, err := s.Execute(context.Background(), names); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if peak.Load() > limit {
		t.Fatalf("peak concurrency = %d, want <= %d", peak.Load(), limit)
	}
}
