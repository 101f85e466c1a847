package ai

import (
	"errors"
	"fmt"
	"log"

	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// ErrRateLimited is returned when the user exhausted their chat quota for the
// current window.
var ErrRateLimited = errors.New("chat rate limit exceeded")

const systemPrompt = "You are a study assistant for an online course platform. " +
	"Answer concisely and stay on the course topic. If the question is not about " +
	"studying or the course material, say you can only help with course questions."

// Service is the AI study assistant: rate limiting, response caching, course
// context assembly and conversation persistence around the LLM client. All
// state is injected; constructed at startup, torn down with the process.
type Service struct {
	db      *gorm.DB
	client  *Client
	cache   *ResponseCache
	limiter *RateLimiter
}

func NewService(db *gorm.DB, client *Client, cache *ResponseCache, limiter *RateLimiter) *Service {
	return &Service{db: db, client: client, cache: cache, limiter: limiter}
}

// Answer replies to a learner's question, optionally scoped to a course the
// learner is studying. Cached answers do not consume LLM quota but do count
// against the per-user rate limit.
func (s *Service) Answer(userID uint, courseID *uint, question string) (string, bool, error) {
	if !s.limiter.Allow(userID) {
		return "", false, ErrRateLimited
	}

	prompt := question
	if courseID != nil {
		prompt = fmt.Sprintf("course:%d\n%s", *courseID, question)
	}

	key := CacheKey(prompt)
	if reply, ok := s.cache.Get(key); ok {
		s.persist(userID, courseID, question, reply, true)
		return reply, true, nil
	}

	messages := []Message{{Role: "system", Content: systemPrompt}}
	if courseID != nil {
		if ctx := s.courseContext(*courseID); ctx != "" {
			messages = append(messages, Message{Role: "system", Content: ctx})
		}
	}
	messages = append(messages, Message{Role: "user", Content: question})

	reply, err := s.client.Complete(messages)
	if err != nil {
		return "", false, err
	}

	s.cache.Put(key, reply)
	s.persist(userID, courseID, question, reply, false)
	return reply, false, nil
}

// History returns the user's most recent conversation turns, newest first.
func (s *Service) History(userID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var messages []models.ChatMessage
	if err := s.db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at desc").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// courseContext summarizes the course outline so the model can ground answers.
func (s *Service) courseContext(courseID uint) string {
	var c courseModels.Course
	if err := s.db.Where("id = ? AND is_deleted = ?", courseID, false).First(&c).Error; err != nil {
		return ""
	}

	var chapters []courseModels.Chapter
	s.db.Where("course_id = ? AND is_published = ? AND is_deleted = ?", courseID, true, false).
		Order("order_index asc").Find(&chapters)

	ctx := fmt.Sprintf("The learner is studying the course %q: %s\nOutline:", c.Title, c.Description)
	for _, ch := range chapters {
		ctx += fmt.Sprintf("\n- %s", ch.Title)
		var lessons []courseModels.Lesson
		s.db.Where("chapter_id = ? AND is_published = ? AND is_deleted = ?", ch.ID, true, false).
			Order("order_index asc").Find(&lessons)
		for _, l := range lessons {
			ctx += fmt.Sprintf("\n  - %s", l.Title)
		}
	}
	return ctx
}

func (s *Service) persist(userID uint, courseID *uint, question, reply string, fromCache bool) {
	turns := []models.ChatMessage{
		{UserID: userID, CourseID: courseID, Role: "user", Content: question},
		{UserID: userID, CourseID: courseID, Role: "assistant", Content: reply, FromCache: fromCache},
	}
	if err := s.db.Create(&turns).Error; err != nil {
		log.Printf("[AI-CHAT] Failed to persist conversation for user %d: %v", userID, err)
	}
}
