package supportControllers

import (
	"encoding/json"
	"strings"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

type ticketMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Time   string `json:"time"`
}

func appendTicketMessage(raw []byte, msg ticketMessage) ([]byte, error) {
	var thread []ticketMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &thread); err != nil {
			// Older tickets stored a single message object
			var single ticketMessage
			if err := json.Unmarshal(raw, &single); err == nil {
				thread = []ticketMessage{single}
			}
		}
	}
	thread = append(thread, msg)
	return json.Marshal(thread)
}

func CreateSupportTicket(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	// Check if user exists
	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	// Get validated data
	reqData, ok := c.Locals("validatedSupportTicket").(*struct {
		Title    string  `json:"title"`
		Subject  *string `json:"subject"`
		Message  string  `json:"message"`
		Priority *string `json:"priority"`
		Category *string `json:"category"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	msgJSON, err := json.Marshal([]ticketMessage{{
		Sender: "user",
		Text:   reqData.Message,
		Time:   time.Now().UTC().Format(time.RFC3339),
	}})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to format message!", nil)
	}

	// Prepare ticket model
	ticket := models.SupportTicket{
		UserID:   userId,
		Title:    reqData.Title,
		Message:  msgJSON,
		Status:   "OPEN",
		Priority: "MEDIUM",
		Category: "GENERAL",
	}

	if reqData.Subject != nil {
		ticket.Subject = *reqData.Subject
	}
	if reqData.Priority != nil {
		ticket.Priority = *reqData.Priority
	}
	if reqData.Category != nil {
		ticket.Category = *reqData.Category
	}

	// Save ticket
	if err := database.Database.Db.Create(&ticket).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create support ticket!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Support ticket created successfully!", ticket)
}

func TicketList(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	reqData, ok := c.Locals("validatedList").(*struct {
		Page     *int    `query:"page"`
		Limit    *int    `query:"limit"`
		Status   *string `query:"status"`
		Priority *string `query:"priority"`
		Category *string `query:"category"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request!", nil)
	}

	// Pagination setup
	page := 1
	limit := 10
	if reqData.Page != nil {
		page = *reqData.Page
	}
	if reqData.Limit != nil {
		limit = *reqData.Limit
	}
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&models.SupportTicket{}).Where("user_id = ? AND is_deleted = false", userId)

	var total int64
	db.Count(&total)

	var tickets []models.SupportTicket
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&tickets).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch tickets!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tickets fetched successfully!", fiber.Map{
		"tickets": tickets,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

func AdminTicketList(c *fiber.Ctx) error {
	// Check if user is admin
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false AND role = ?", userId, "ADMIN").First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access denied!", nil)
	}

	// Get validated query data
	reqData, ok := c.Locals("validatedAdminList").(*struct {
		Page     *int    `query:"page"`
		Limit    *int    `query:"limit"`
		Status   *string `query:"status"`
		Priority *string `query:"priority"`
		Category *string `query:"category"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	// Defaults
	page := 1
	limit := 10
	if reqData.Page != nil {
		page = *reqData.Page
	}
	if reqData.Limit != nil {
		limit = *reqData.Limit
	}
	offset := (page - 1) * limit

	// Base query
	db := database.Database.Db.Model(&models.SupportTicket{}).Where("is_deleted = false")

	// Apply filters
	if reqData.Status != nil {
		db = db.Where("UPPER(status) = ?", strings.ToUpper(*reqData.Status))
	}
	if reqData.Priority != nil {
		db = db.Where("UPPER(priority) = ?", strings.ToUpper(*reqData.Priority))
	}
	if reqData.Category != nil {
		db = db.Where("UPPER(category) = ?", strings.ToUpper(*reqData.Category))
	}

	var total int64
	db.Count(&total)

	var tickets []models.SupportTicket
	if err := db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&tickets).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch tickets!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tickets fetched successfully!", fiber.Map{
		"tickets": tickets,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// AdminSupportStats gets ticket counts grouped by status
func AdminSupportStats(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false AND role = ?", userId, "ADMIN").First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access denied!", nil)
	}

	var total, open, inProgress, closed, highPriority int64
	database.Database.Db.Model(&models.SupportTicket{}).Where("is_deleted = false").Count(&total)
	database.Database.Db.Model(&models.SupportTicket{}).Where("is_deleted = false AND status = ?", "OPEN").Count(&open)
	database.Database.Db.Model(&models.SupportTicket{}).Where("is_deleted = false AND status = ?", "IN_PROGRESS").Count(&inProgress)
	database.Database.Db.Model(&models.SupportTicket{}).Where("is_deleted = false AND status = ?", "CLOSED").Count(&closed)
	database.Database.Db.Model(&models.SupportTicket{}).Where("is_deleted = false AND priority = ?", "HIGH").Count(&highPriority)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Support stats fetched successfully!", fiber.Map{
		"total":         total,
		"open":          open,
		"in_progress":   inProgress,
		"closed":        closed,
		"high_priority": highPriority,
	})
}

// AdminReplyTicket appends an admin reply to a ticket thread
func AdminReplyTicket(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false AND role = ?", userId, "ADMIN").First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access denied!", nil)
	}

	return replyToTicket(c, "admin", true)
}

// UserReplyTicket appends a user reply to their own ticket
func UserReplyTicket(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	return replyToTicket(c, "user", false)
}

func replyToTicket(c *fiber.Ctx, sender string, isAdmin bool) error {
	userId := c.Locals("userId").(uint)

	reqData, ok := c.Locals("validatedTicketReply").(*struct {
		TicketID uint   `json:"ticket_id"`
		Message  string `json:"message"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db.Where("id = ? AND is_deleted = false", reqData.TicketID)
	if !isAdmin {
		db = db.Where("user_id = ?", userId)
	}

	var ticket models.SupportTicket
	if err := db.First(&ticket).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Ticket not found!", nil)
	}

	if ticket.Status == "CLOSED" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Ticket is already closed!", nil)
	}

	updated, err := appendTicketMessage(ticket.Message, ticketMessage{
		Sender: sender,
		Text:   reqData.Message,
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to format message!", nil)
	}

	updates := map[string]interface{}{"message": updated}
	if isAdmin {
		updates["status"] = "IN_PROGRESS"
	}

	if err := database.Database.Db.Model(&models.SupportTicket{}).Where("id = ?", ticket.ID).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save reply!", nil)
	}

	if isAdmin {
		var ticketUser models.User
		if err := database.Database.Db.Where("id = ?", ticket.UserID).First(&ticketUser).Error; err == nil {
			go utils.SendTicketReplyEmail(ticketUser.Email, ticketUser.Name, ticket.Title, reqData.Message)
		}
	}

	database.Database.Db.Where("id = ?", ticket.ID).First(&ticket)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reply added successfully!", ticket)
}

// UserCloseTicket closes the user's own ticket
func UserCloseTicket(c *fiber.Ctx) error {
	return closeTicket(c, false)
}

// AdminCloseTicket closes any ticket
func AdminCloseTicket(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false AND role = ?", userId, "ADMIN").First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access denied!", nil)
	}

	return closeTicket(c, true)
}

func closeTicket(c *fiber.Ctx, isAdmin bool) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCloseTicket").(*struct {
		TicketID uint `json:"ticket_id"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db.Where("id = ? AND is_deleted = false", reqData.TicketID)
	if !isAdmin {
		db = db.Where("user_id = ?", userId)
	}

	var ticket models.SupportTicket
	if err := db.First(&ticket).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Ticket not found!", nil)
	}

	if ticket.Status == "CLOSED" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Ticket is already closed!", nil)
	}

	if err := database.Database.Db.Model(&models.SupportTicket{}).Where("id = ?", ticket.ID).Update("status", "CLOSED").Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to close ticket!", nil)
	}

	ticket.Status = "CLOSED"
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Ticket closed successfully!", ticket)
}
