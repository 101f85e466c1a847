package paymentControllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/progress"
	"lms/utils"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
)

type stripeSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
	Status        string `json:"status"`
	Error         struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCheckout creates a Stripe checkout session for a paid course
func CreateCheckout(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData, ok := c.Locals("validatedCheckout").(*struct {
		CourseID uint `json:"course_id"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND status = ?", reqData.CourseID, false, "ACTIVE").First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not active!", nil)
	}

	if course.Price <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "This course is free, enroll directly!", nil)
	}

	var existingEnrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ? AND status <> ?", userId, reqData.CourseID, false, "CANCELLED").First(&existingEnrollment).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", nil)
	}

	// Price is stored in the smallest currency unit, as Stripe expects
	amountCents := course.Price

	client := resty.New()
	resp, err := client.R().
		SetHeader("Authorization", "Bearer "+config.AppConfig.StripeSecretKey).
		SetFormData(map[string]string{
			"mode":                                          "payment",
			"success_url":                                   config.AppConfig.CheckoutSuccess,
			"cancel_url":                                    config.AppConfig.CheckoutCancel,
			"line_items[0][price_data][currency]":           course.Currency,
			"line_items[0][price_data][unit_amount]":        strconv.FormatInt(amountCents, 10),
			"line_items[0][price_data][product_data][name]": course.Title,
			"line_items[0][quantity]":                       "1",
			"metadata[user_id]":                             strconv.FormatUint(uint64(userId), 10),
			"metadata[course_id]":                           strconv.FormatUint(uint64(course.ID), 10),
		}).
		Post(config.AppConfig.StripeApiURL + "checkout/sessions")
	if err != nil {
		log.Printf("[PAYMENT] Stripe session create error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create checkout session!", nil)
	}

	var session stripeSession
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Invalid checkout response!", nil)
	}

	if resp.StatusCode() != fiber.StatusOK || session.ID == "" {
		log.Printf("[PAYMENT] Stripe session create failed: %s", session.Error.Message)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create checkout session!", nil)
	}

	payment := models.Payment{
		UserID:            userId,
		CourseID:          course.ID,
		Amount:            course.Price,
		Currency:          course.Currency,
		Provider:          "STRIPE",
		ProviderSessionID: session.ID,
		Status:            "PENDING",
	}

	if err := database.Database.Db.Create(&payment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record payment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Checkout session created successfully!", fiber.Map{
		"payment_id":   payment.ID,
		"session_id":   session.ID,
		"checkout_url": session.URL,
	})
}

// ConfirmPayment verifies the checkout session with Stripe and enrolls
// the user once the session is paid
func ConfirmPayment(svc *progress.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userId, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}

		reqData, ok := c.Locals("validatedConfirmPayment").(*struct {
			SessionID string `json:"session_id"`
		})
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		var payment models.Payment
		if err := database.Database.Db.Where("provider_session_id = ? AND user_id = ? AND is_deleted = ?", reqData.SessionID, userId, false).First(&payment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Payment not found!", nil)
		}

		if payment.Status == "PAID" {
			return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment already confirmed!", payment)
		}

		client := resty.New()
		resp, err := client.R().
			SetHeader("Authorization", "Bearer "+config.AppConfig.StripeSecretKey).
			Get(config.AppConfig.StripeApiURL + "checkout/sessions/" + payment.ProviderSessionID)
		if err != nil {
			log.Printf("[PAYMENT] Stripe session fetch error: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify payment!", nil)
		}

		var session stripeSession
		if err := json.Unmarshal(resp.Body(), &session); err != nil || resp.StatusCode() != fiber.StatusOK {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify payment!", nil)
		}

		if session.PaymentStatus != "paid" {
			database.Database.Db.Model(&models.Payment{}).Where("id = ?", payment.ID).Update("status", "FAILED")
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, fmt.Sprintf("Payment not completed, status: %s", session.PaymentStatus), nil)
		}

		now := time.Now()
		if err := database.Database.Db.Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(map[string]interface{}{
			"status":  "PAID",
			"paid_at": now,
		}).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update payment!", nil)
		}

		enrollment, err := svc.Enroll(userId, payment.CourseID)
		if err != nil && !errors.Is(err, progress.ErrAlreadyEnrolled) {
			log.Printf("[PAYMENT] Enroll after payment failed for user %d course %d: %v", userId, payment.CourseID, err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Payment confirmed but enrollment failed, contact support!", nil)
		}

		var course courseModels.Course
		if err := database.Database.Db.Where("id = ?", payment.CourseID).First(&course).Error; err == nil {
			go utils.SendEnrollmentEmail(user.Email, user.Name, course.Title)
		}

		database.Database.Db.Where("id = ?", payment.ID).First(&payment)

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment confirmed and enrolled successfully!", fiber.Map{
			"payment":    payment,
			"enrollment": enrollment,
		})
	}
}

// PaymentHistory lists the user's payments
func PaymentHistory(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var payments []models.Payment
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userId, false).
		Order("created_at DESC").Find(&payments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch payments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payments fetched successfully!", payments)
}
