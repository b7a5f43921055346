package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"starting5-service/internal/domain"
)

type countingRepo struct {
	record       domain.QuizRecord
	currentCalls int
	loadCalls    int
}

func (r *countingRepo) Current(context.Context) (domain.QuizRecord, error) {
	r.currentCalls++
	return r.record, nil
}

func (r *countingRepo) Load(_ context.Context, path string) (domain.QuizRecord, error) {
	r.loadCalls++
	if path != r.record.Path {
		return domain.QuizRecord{}, domain.ErrQuizNotFound
	}
	return r.record, nil
}

func TestQuizCacheAvoidsRepeatedLoads(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{record: domain.QuizRecord{ID: "q.json", Path: "/quizzes/q.json", Season: "2015-16"}}
	cache := NewQuizCache(inner, time.Minute)

	for i := 0; i < 3; i++ {
		record, err := cache.Current(ctx)
		if err != nil {
			t.Fatalf("current: %v", err)
		}
		if record.Season != "2015-16" {
			t.Fatalf("unexpected record %+v", record)
		}
	}
	if inner.currentCalls != 1 {
		t.Fatalf("expected one inner load, got %d", inner.currentCalls)
	}

	// Paths are cached under their own key.
	for i := 0; i < 2; i++ {
		if _, err := cache.Load(ctx, "/quizzes/q.json"); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	if inner.loadCalls != 1 {
		t.Fatalf("expected one inner path load, got %d", inner.loadCalls)
	}
}

type echoRepo struct{}

func (echoRepo) Current(context.Context) (domain.QuizRecord, error) {
	return domain.QuizRecord{ID: "current.json", Path: "/quizzes/current.json"}, nil
}

func (echoRepo) Load(_ context.Context, path string) (domain.QuizRecord, error) {
	return domain.QuizRecord{ID: filepath.Base(path), Path: path}, nil
}

// Distinct keys fill the cache from concurrent singleflight callbacks; run
// under -race this guards the jitter path.
func TestQuizCacheConcurrentDistinctKeys(t *testing.T) {
	ctx := context.Background()
	cache := NewQuizCache(echoRepo{}, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("/quizzes/q%d.json", i)
			record, err := cache.Load(ctx, path)
			if err != nil {
				t.Errorf("load %s: %v", path, err)
				return
			}
			if record.Path != path {
				t.Errorf("expected %s, got %+v", path, record)
			}
			if _, err := cache.Current(ctx); err != nil {
				t.Errorf("current: %v", err)
			}
		}(i)
	}
	wg.Wait()
}

func TestQuizCacheDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{record: domain.QuizRecord{ID: "q.json", Path: "/quizzes/q.json"}}
	cache := NewQuizCache(inner, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.Load(ctx, "/quizzes/missing.json"); err != domain.ErrQuizNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if inner.loadCalls != 2 {
		t.Fatalf("errors must not be cached, got %d calls", inner.loadCalls)
	}
}
