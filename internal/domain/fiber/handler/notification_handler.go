package handler

import (
	"context"
	"time"

	"github.com/fadilmartias/fasthire/internal/dto"
	"github.com/fadilmartias/fasthire/internal/mailtemplate"
	"github.com/fadilmartias/fasthire/internal/middleware"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/response"
	"github.com/fadilmartias/fasthire/internal/usecase"
	"github.com/fadilmartias/fasthire/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type NotificationService interface {
	SendSingleNotification(ctx context.Context, applicationID uuid.UUID, req usecase.SendRequest) (*usecase.SendReceipt, error)
	SendBulkNotifications(ctx context.Context, applicationIDs []uuid.UUID, req usecase.SendRequest) (*usecase.BulkResult, error)
	PreviewNotification(ctx context.Context, applicationID, templateID uuid.UUID, interview mailtemplate.Interview) (*mailtemplate.Message, error)
	HasQualifyingDelivery(ctx context.Context, applicantID, jobID uuid.UUID) (usecase.DeliveryStatus, error)
	DeliveryLogsForPair(ctx context.Context, applicantID, jobID uuid.UUID) ([]model.MailLog, error)
	ListDeliveryLogs(ctx context.Context, page, pageSize int) ([]model.MailLog, int64, error)
}

type ReconciliationService interface {
	SyncDeliveryFlags(ctx context.Context) (*usecase.SyncResult, error)
}

type NotificationHandler struct {
	uc   NotificationService
	sync ReconciliationService
}

func NewNotificationHandler(uc NotificationService, sync ReconciliationService) *NotificationHandler {
	return &NotificationHandler{uc: uc, sync: sync}
}

func (h *NotificationHandler) RegisterRoutes(app *fiber.App) {
	n := app.Group("/notifications")
	n.Post("/single", middleware.RateLimiter(30, time.Minute), h.SendSingle)
	n.Post("/bulk", middleware.RateLimiter(5, time.Minute), h.SendBulk)
	n.Get("/preview/:applicationId/:templateId", h.Preview)
	n.Get("/check/:applicantId/:jobId", h.Check)
	n.Get("/logs", h.Logs)
	n.Post("/sync-flags", middleware.RateLimiter(2, time.Minute), h.SyncFlags)
}

func (h *NotificationHandler) SendSingle(c *fiber.Ctx) error {
	var req dto.SendSingleNotificationRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err, "")
	}
	applicationID := uuid.MustParse(req.ApplicationID)
	sendReq, err := toSendRequest(req.TemplateID, req.CreatedBy, req.MarkAsSent, req.Interview)
	if err != nil {
		return writeError(c, err, "")
	}

	receipt, err := h.uc.SendSingleNotification(c.UserContext(), applicationID, sendReq)
	if err != nil {
		return writeError(c, err, "failed to send notification")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Notification queued",
		Data:    receipt,
	})
}

func (h *NotificationHandler) SendBulk(c *fiber.Ctx) error {
	var req dto.SendBulkNotificationRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err, "")
	}
	ids := make([]uuid.UUID, len(req.ApplicationIDs))
	for i, raw := range req.ApplicationIDs {
		ids[i] = uuid.MustParse(raw)
	}
	sendReq, err := toSendRequest(req.TemplateID, req.CreatedBy, req.MarkAsSent, req.Interview)
	if err != nil {
		return writeError(c, err, "")
	}

	result, err := h.uc.SendBulkNotifications(c.UserContext(), ids, sendReq)
	if err != nil {
		return writeError(c, err, "failed to send notifications")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Bulk notification processed",
		Data:    result,
		Meta: fiber.Map{
			"requested": len(ids),
			"skipped":   len(result.Skipped),
			"failed":    len(result.Failed),
		},
	})
}

func (h *NotificationHandler) Preview(c *fiber.Ctx) error {
	applicationID, err := uuidParam(c, "applicationId")
	if err != nil {
		return writeError(c, err, "")
	}
	templateID, err := uuidParam(c, "templateId")
	if err != nil {
		return writeError(c, err, "")
	}
	interview := mailtemplate.Interview{
		Date: c.Query("interview_date"),
		Time: c.Query("interview_time"),
	}

	msg, err := h.uc.PreviewNotification(c.UserContext(), applicationID, templateID, interview)
	if err != nil {
		return writeError(c, err, "failed to render preview")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success render preview",
		Data:    fiber.Map{"subject": msg.Subject, "html": msg.HTML},
	})
}

func (h *NotificationHandler) Check(c *fiber.Ctx) error {
	applicantID, err := uuidParam(c, "applicantId")
	if err != nil {
		return writeError(c, err, "")
	}
	jobID, err := uuidParam(c, "jobId")
	if err != nil {
		return writeError(c, err, "")
	}

	status, err := h.uc.HasQualifyingDelivery(c.UserContext(), applicantID, jobID)
	if err != nil {
		return writeError(c, err, "failed to check delivery")
	}
	logs, err := h.uc.DeliveryLogsForPair(c.UserContext(), applicantID, jobID)
	if err != nil {
		return writeError(c, err, "failed to load delivery logs")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success check delivery",
		Data: fiber.Map{
			"status": status,
			"logs":   dto.NewMailLogDTOs(logs),
		},
	})
}

func (h *NotificationHandler) Logs(c *fiber.Ctx) error {
	var q dto.PaginationQuery
	if err := c.QueryParser(&q); err != nil {
		return writeError(c, &dto.ValidationError{Fields: map[string]string{"query": "must be numeric"}}, "")
	}
	if err := dto.Validate(q); err != nil {
		return writeError(c, err, "")
	}
	q.Normalize()

	logs, total, err := h.uc.ListDeliveryLogs(c.UserContext(), q.Page, q.PageSize)
	if err != nil {
		return writeError(c, err, "failed to list delivery logs")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get delivery logs",
		Data:       dto.NewMailLogDTOs(logs),
		Pagination: response.NewPagination(q.Page, q.PageSize, total, len(logs)),
	})
}

func (h *NotificationHandler) SyncFlags(c *fiber.Ctx) error {
	result, err := h.sync.SyncDeliveryFlags(c.UserContext())
	if err != nil {
		return writeError(c, err, "failed to sync delivery flags")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Delivery flags synchronised",
		Data:    result,
	})
}

// toSendRequest converts validated request fields. MarkAsSent defaults to true.
func toSendRequest(templateID, createdBy string, markAsSent *bool, interview dto.InterviewDTO) (usecase.SendRequest, error) {
	creator, err := dto.ParseOptionalUUID(createdBy)
	if err != nil {
		return usecase.SendRequest{}, &dto.ValidationError{Fields: map[string]string{"createdBy": "must be a valid UUID"}}
	}
	mark := true
	if markAsSent != nil {
		mark = *markAsSent
	}
	return usecase.SendRequest{
		TemplateID: uuid.MustParse(templateID),
		CreatedBy:  creator,
		Interview:  mailtemplate.Interview{Date: interview.Date, Time: interview.Time},
		MarkAsSent: mark,
	}, nil
}
