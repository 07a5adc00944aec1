// Package storetest provides a conformance suite every record.Store backend
// must pass.
package storetest

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/telebox/pkg/record"
)

// StoreFactory creates a fresh, empty Store for each test. It may use
// t.TempDir and t.Cleanup for filesystem-backed stores.
type StoreFactory func(t *testing.T) record.Store

// RunConformanceSuite runs the full suite against the store factory.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory(t)) })
	t.Run("PutGet", func(t *testing.T) { testPutGet(t, factory(t)) })
	t.Run("PutOverwrites", func(t *testing.T) { testPutOverwrites(t, factory(t)) })
	t.Run("ReturnedRecordIsCopy", func(t *testing.T) { testReturnedRecordIsCopy(t, factory(t)) })
	t.Run("List", func(t *testing.T) { testList(t, factory(t)) })
	t.Run("ConcurrentPutLastWriterWins", func(t *testing.T) { testConcurrentPut(t, factory(t)) })
	t.Run("Healthcheck", func(t *testing.T) {
		if err := factory(t).Healthcheck(t.Context()); err != nil {
			t.Fatalf("Healthcheck() = %v", err)
		}
	})
}

func sample(name string) *record.FileRecord {
	return &record.FileRecord{
		ListType:  record.ListNone,
		Label:     record.LabelNone,
		TimeStamp: time.Now().UnixMilli(),
		FileName:  name,
		FileSize:  1234,
		MimeType:  "image/png",
	}
}

func testGetMissing(t *testing.T, s record.Store) {
	_, err := s.Get(t.Context(), "does-not-exist.png")
	if !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func testPutGet(t *testing.T, s record.Store) {
	ctx := t.Context()
	want := sample("cat.png")
	want.Liked = true

	if err := s.Put(ctx, "AgADabc.png", want); err != nil {
		t.Fatalf("Put() = %v", err)
	}
	got, err := s.Get(ctx, "AgADabc.png")
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if *got != *want {
		t.Fatalf("Get() = %+v, want %+v", got, want)
	}
}

func testPutOverwrites(t *testing.T, s record.Store) {
	ctx := t.Context()
	first := sample("a.png")
	if err := s.Put(ctx, "h", first); err != nil {
		t.Fatalf("Put() = %v", err)
	}

	second := first.Clone()
	second.Label = record.LabelAdult
	second.ListType = record.ListBlock
	if err := s.Put(ctx, "h", second); err != nil {
		t.Fatalf("Put() = %v", err)
	}

	got, err := s.Get(ctx, "h")
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if got.Label != record.LabelAdult || got.ListType != record.ListBlock {
		t.Fatalf("Get() = %+v, want overwritten record", got)
	}
}

func testReturnedRecordIsCopy(t *testing.T, s record.Store) {
	ctx := t.Context()
	in := sample("x.png")
	if err := s.Put(ctx, "x", in); err != nil {
		t.Fatalf("Put() = %v", err)
	}
	in.Label = "mutated"

	got, err := s.Get(ctx, "x")
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	got.FileName = "mutated"

	again, err := s.Get(ctx, "x")
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if again.Label != record.LabelNone || again.FileName != "x.png" {
		t.Fatalf("stored record aliased caller memory: %+v", again)
	}
}

func testList(t *testing.T, s record.Store) {
	ctx := t.Context()
	handles := []string{"c.png", "a.png", "e", "b.jpg", "d"}
	for _, h := range handles {
		if err := s.Put(ctx, h, sample(h)); err != nil {
			t.Fatalf("Put(%q) = %v", h, err)
		}
	}

	all, err := s.List(ctx, record.ListOptions{})
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if got := entryHandles(all); fmt.Sprint(got) != fmt.Sprint([]string{"a.png", "b.jpg", "c.png", "d", "e"}) {
		t.Fatalf("List() handles = %v", got)
	}
	if all[0].Record == nil || all[0].Record.FileName != "a.png" {
		t.Fatalf("List() record = %+v", all[0].Record)
	}

	page, err := s.List(ctx, record.ListOptions{Limit: 2, After: "b.jpg"})
	if err != nil {
		t.Fatalf("List(page) = %v", err)
	}
	if got := entryHandles(page); fmt.Sprint(got) != fmt.Sprint([]string{"c.png", "d"}) {
		t.Fatalf("List(page) handles = %v", got)
	}
}

func entryHandles(entries []record.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Handle
	}
	return out
}

// testConcurrentPut checks that racing writers to one handle leave exactly
// one complete record behind. Which writer wins is unspecified.
func testConcurrentPut(t *testing.T, s record.Store) {
	ctx := t.Context()
	labels := []string{"everyone", "teen", record.LabelAdult, "None"}

	var wg sync.WaitGroup
	for _, l := range labels {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := sample("race.png")
			rec.Label = l
			if err := s.Put(ctx, "race", rec); err != nil {
				t.Errorf("Put() = %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "race")
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	found := false
	for _, l := range labels {
		found = found || got.Label == l
	}
	if !found || got.FileName != "race.png" {
		t.Fatalf("Get() after race = %+v", got)
	}
}
