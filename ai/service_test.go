package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestAIService(t *testing.T, limit int) (*Service, *gorm.DB, *int) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.ChatMessage{},
		&courseModels.Course{},
		&courseModels.Chapter{},
		&courseModels.Lesson{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "a closure captures its scope"}},
			},
		})
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "test-key", "gpt-4o-mini")
	svc := NewService(db, client, NewResponseCache(16, time.Minute), NewRateLimiter(limit, time.Minute))
	return svc, db, &requests
}

func TestAnswerCachesRepeatedQuestions(t *testing.T) {
	svc, db, requests := newTestAIService(t, 10)

	reply, cached, err := svc.Answer(1, nil, "what is a closure?")
	if err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if cached {
		t.Fatal("first answer should not be cached")
	}
	if reply != "a closure captures its scope" {
		t.Fatalf("reply = %q", reply)
	}

	// Same question again, even from another user, hits the cache.
	_, cached, err = svc.Answer(2, nil, "what is a closure?")
	if err != nil {
		t.Fatalf("second answer: %v", err)
	}
	if !cached {
		t.Fatal("second identical question should come from the cache")
	}
	if *requests != 1 {
		t.Fatalf("LLM requests = %d, want 1", *requests)
	}

	// Both turns of both conversations were persisted.
	var count int64
	db.Model(&models.ChatMessage{}).Count(&count)
	if count != 4 {
		t.Fatalf("persisted messages = %d, want 4", count)
	}
}

func TestAnswerScopesCacheByCourse(t *testing.T) {
	svc, _, requests := newTestAIService(t, 10)

	courseA := uint(1)
	courseB := uint(2)
	if _, _, err := svc.Answer(1, &courseA, "summarize this chapter"); err != nil {
		t.Fatalf("course A: %v", err)
	}
	if _, cached, err := svc.Answer(1, &courseB, "summarize this chapter"); err != nil || cached {
		t.Fatalf("course B should miss the cache, got cached=%v err=%v", cached, err)
	}
	if *requests != 2 {
		t.Fatalf("LLM requests = %d, want 2", *requests)
	}
}

func TestAnswerRateLimited(t *testing.T) {
	svc, _, _ := newTestAIService(t, 1)

	if _, _, err := svc.Answer(1, nil, "q1"); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if _, _, err := svc.Answer(1, nil, "q2"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestHistoryReturnsNewestFirst(t *testing.T) {
	svc, db, _ := newTestAIService(t, 10)

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Answer(1, nil, fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
	// Another user's history must not leak in.
	if _, _, err := svc.Answer(2, nil, "other user"); err != nil {
		t.Fatalf("other user: %v", err)
	}

	history, err := svc.History(1, 4)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("history length = %d, want 4", len(history))
	}
	for _, m := range history {
		if m.UserID != 1 {
			t.Fatalf("history leaked message for user %d", m.UserID)
		}
	}

	var total int64
	db.Model(&models.ChatMessage{}).Where("user_id = ?", 1).Count(&total)
	if total != 6 {
		t.Fatalf("stored messages = %d, want 6", total)
	}
}
