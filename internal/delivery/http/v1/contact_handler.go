package v1

import (
	"context"
	"errors"
	"io"
	"net/http"

	"portfolio-backend/internal/delivery/http/middleware"
	"portfolio-backend/internal/delivery/http/response"
	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contactUC domain.ContactUsecase
}

// NewContactHandler registers POST /submit-form behind the given limiter.
func NewContactHandler(r gin.IRouter, contactUC domain.ContactUsecase, limiter gin.HandlerFunc) {
	handler := &ContactHandler{
		contactUC: contactUC,
	}

	r.POST("/submit-form", limiter, handler.SubmitForm)
}

// SubmitForm godoc
// @Summary      Submit Contact Form
// @Description  Validates and accepts a contact form submission. Limited to 5 submissions per client per rolling hour.
// @Tags         contact
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        submission  body      domain.FormSubmission  true  "Contact Form Data"
// @Success      200         {object}  response.Response{data=domain.SubmissionEcho}
// @Failure      400         {object}  response.ErrorResponse
// @Failure      413         {object}  response.ErrorResponse
// @Failure      429         {object}  response.ErrorResponse
// @Failure      500         {object}  response.ErrorResponse
// @Router       /submit-form [post]
func (h *ContactHandler) SubmitForm(c *gin.Context) {
	var req domain.FormSubmission
	// An empty body decodes to an empty submission and fails validation.
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			_ = c.Error(apperror.RequestTooLarge(middleware.MsgRequestTooLarge))
			return
		}
		_ = c.Error(apperror.BadRequest(domain.MsgInvalidBody))
		return
	}

	// The accept hook runs to completion even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	ctx = context.WithValue(ctx, domain.KeyRequestID, middleware.GetRequestID(c))
	ctx = context.WithValue(ctx, domain.KeyClientIP, c.ClientIP())
	ctx = context.WithValue(ctx, domain.KeyUserAgent, c.Request.UserAgent())

	echo, err := h.contactUC.Submit(ctx, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, domain.MsgSubmitted, echo)
}
