package certificate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	courseModels "lms/models/course"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Issuer creates completion certificates. Issue is idempotent per enrollment:
// repeat calls for an already-certified enrollment return the existing record.
type Issuer struct {
	db  *gorm.DB
	now func() time.Time
}

func NewIssuer(db *gorm.DB) *Issuer {
	return &Issuer{db: db, now: time.Now}
}

// Issue creates the certificate for a completed enrollment, or returns the
// one already issued.
func (i *Issuer) Issue(userID, courseID, enrollmentID uint, finalScore, totalHours float64) (*courseModels.Certificate, error) {
	var existing courseModels.Certificate
	err := i.db.Where("enrollment_id = ? AND is_deleted = ?", enrollmentID, false).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	number := newCertificateNumber()
	cert := courseModels.Certificate{
		UserID:            userID,
		CourseID:          courseID,
		EnrollmentID:      enrollmentID,
		CertificateNumber: number,
		CertificateURL:    fmt.Sprintf("/certificates/%s.pdf", number),
		FinalScore:        finalScore,
		TotalHours:        totalHours,
		IssuedAt:          i.now(),
	}
	if err := i.db.Create(&cert).Error; err != nil {
		// Concurrent completion may have issued it first.
		var raced courseModels.Certificate
		if ferr := i.db.Where("enrollment_id = ? AND is_deleted = ?", enrollmentID, false).
			First(&raced).Error; ferr == nil {
			return &raced, nil
		}
		return nil, err
	}
	return &cert, nil
}

func newCertificateNumber() string {
	return "CERT-" + strings.ToUpper(uuid.New().String()[:8])
}
