package usecase

import (
	"context"

	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/apperror"
	"portfolio-backend/pkg/logger"
	"portfolio-backend/pkg/security"
	"portfolio-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// Checked in this order; the first failing tag decides the message.
var (
	submissionTagPriority = []string{"required", "contact_email"}
	submissionTagMessages = map[string]string{
		"required":      domain.MsgAllFieldsRequired,
		"contact_email": domain.MsgInvalidEmail,
	}
)

// ValidateSubmission classifies s. It returns nil or a 400 *apperror.AppError.
func ValidateSubmission(v *validator.Validate, s domain.FormSubmission) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	if msg, ok := validation.FirstMessage(err, submissionTagPriority, submissionTagMessages); ok {
		return apperror.BadRequest(msg)
	}
	logger.Log.Warn("Unmapped contact validation failure", "errors", validation.FormatValidationErrors(err))
	return apperror.BadRequest(domain.MsgAllFieldsRequired)
}

type contactUsecase struct {
	validate  *validator.Validate
	hook      domain.AcceptHook
	secLogger *security.SecurityLogger
}

// NewContactUsecase builds the contact form usecase. A nil hook accepts immediately.
func NewContactUsecase(validate *validator.Validate, hook domain.AcceptHook, secLogger *security.SecurityLogger) domain.ContactUsecase {
	if validate == nil {
		validate = validation.New()
	}
	if hook == nil {
		hook = ChainHooks()
	}
	return &contactUsecase{
		validate:  validate,
		hook:      hook,
		secLogger: secLogger,
	}
}

func (uc *contactUsecase) Validate(s domain.FormSubmission) error {
	return ValidateSubmission(uc.validate, s)
}

// Submit validates s and runs the accept hook. Validation failures come back as
// 400 errors; a failing hook is recorded as a security event and reported with the
// generic 500 message; the HTTP error handler writes the application log line.
func (uc *contactUsecase) Submit(ctx context.Context, s domain.FormSubmission) (*domain.SubmissionEcho, error) {
	ip := ctxString(ctx, domain.KeyClientIP)
	requestID := ctxString(ctx, domain.KeyRequestID)

	if err := uc.Validate(s); err != nil {
		uc.secLogger.LogValidationFailed(ctx, s.Email, ip, requestID, err.Error())
		return nil, err
	}

	if err := uc.hook.OnAccept(ctx, s); err != nil {
		uc.secLogger.LogServerError(ctx, ip, requestID, "/submit-form", err)
		return nil, apperror.Internal(domain.MsgSubmitFailed, err)
	}

	uc.secLogger.LogSubmissionAccepted(ctx, s.Email, ip, requestID)

	echo := s.Echo()
	return &echo, nil
}

func ctxString(ctx context.Context, key domain.CtxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
