package certificate

import (
	"fmt"
	"strings"
	"testing"
	"time"

	courseModels "lms/models/course"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestIssuer(t *testing.T) (*Issuer, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&courseModels.Certificate{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	issuer := NewIssuer(db)
	issuer.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return issuer, db
}

func TestIssueCreatesCertificate(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	cert, err := issuer.Issue(1, 2, 3, 87.5, 4.2)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(cert.CertificateNumber, "CERT-") {
		t.Fatalf("certificate number = %q, want CERT- prefix", cert.CertificateNumber)
	}
	if cert.FinalScore != 87.5 || cert.TotalHours != 4.2 {
		t.Fatalf("score/hours = (%v, %v), want (87.5, 4.2)", cert.FinalScore, cert.TotalHours)
	}
	if cert.CertificateURL == "" {
		t.Fatal("certificate URL should be set")
	}
}

func TestIssueIsIdempotentPerEnrollment(t *testing.T) {
	issuer, db := newTestIssuer(t)

	first, err := issuer.Issue(1, 2, 3, 90, 5)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := issuer.Issue(1, 2, 3, 90, 5)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if first.CertificateNumber != second.CertificateNumber {
		t.Fatalf("numbers differ: %q vs %q", first.CertificateNumber, second.CertificateNumber)
	}

	var count int64
	db.Model(&courseModels.Certificate{}).Where("enrollment_id = ?", 3).Count(&count)
	if count != 1 {
		t.Fatalf("certificates for enrollment = %d, want 1", count)
	}
}

func TestIssueSeparateEnrollments(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	a, err := issuer.Issue(1, 2, 3, 80, 3)
	if err != nil {
		t.Fatalf("issue a: %v", err)
	}
	b, err := issuer.Issue(1, 5, 6, 70, 2)
	if err != nil {
		t.Fatalf("issue b: %v", err)
	}
	if a.CertificateNumber == b.CertificateNumber {
		t.Fatal("distinct enrollments must get distinct certificate numbers")
	}
}
