package progress

import "errors"

var (
	// ErrNotFound is returned when a referenced course or lesson does not exist
	// or is not published.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden is returned when the caller has no active enrollment in the
	// lesson's course.
	ErrForbidden = errors.New("not enrolled in this course")

	// ErrLessonLocked is returned when sequential learning blocks access to a
	// lesson whose predecessor is not completed yet.
	ErrLessonLocked = errors.New("lesson is locked")

	// ErrAlreadyEnrolled is returned when enrolling twice in the same course.
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
)
