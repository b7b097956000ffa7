package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrStaffAccessOnly   ErrCode = "STAFF_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrSessionRequired ErrCode = "SESSION_REQUIRED"
	ErrInvalidOption   ErrCode = "INVALID_OPTION"
	ErrInvalidTime     ErrCode = "INVALID_TIME_SPENT"
	ErrInvalidActivity ErrCode = "INVALID_ACTIVITY"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound             ErrCode = "NOT_FOUND"
	ErrExamNotFound         ErrCode = "EXAM_NOT_FOUND"
	ErrAttemptNotFound      ErrCode = "ATTEMPT_NOT_FOUND"
	ErrQuestionNotInAttempt ErrCode = "QUESTION_NOT_IN_ATTEMPT"
	ErrConflict             ErrCode = "CONFLICT"

	// ─── Exam session ──────────────────────────────────────────────────
	ErrExamNotActive    ErrCode = "EXAM_NOT_ACTIVE"
	ErrAttemptExists    ErrCode = "ATTEMPT_EXISTS"
	ErrAttemptNotOwned  ErrCode = "ATTEMPT_NOT_OWNED"
	ErrInvalidSession   ErrCode = "INVALID_SESSION"
	ErrAttemptFinalized ErrCode = "ATTEMPT_FINALIZED"
	ErrNotGraded        ErrCode = "NOT_GRADED"
	ErrNotResumable     ErrCode = "NOT_RESUMABLE"
	ErrTimeExpired      ErrCode = "TIME_EXPIRED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "توکن احراز هویت ارسال نشده است."
	case ErrTokenInvalid:
		return "توکن احراز هویت نامعتبر یا منقضی شده است. لطفاً دوباره وارد شوید."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "شما به این بخش دسترسی ندارید."
	case ErrStudentAccessOnly:
		return "این بخش فقط برای داوطلبان در دسترس است."
	case ErrStaffAccessOnly:
		return "این بخش فقط برای مدیران و پشتیبان‌ها در دسترس است."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "اطلاعات ارسالی نامعتبر است."
	case ErrInvalidID:
		return "شناسه نامعتبر است."
	case ErrInvalidPayload:
		return "بدنه درخواست قابل خواندن نیست."
	case ErrSessionRequired:
		return "شناسه جلسه آزمون ارسال نشده است."
	case ErrInvalidOption:
		return "گزینه انتخابی باید یکی از الف، ب، ج یا د باشد."
	case ErrInvalidTime:
		return "زمان صرف‌شده نمی‌تواند منفی باشد."
	case ErrInvalidActivity:
		return "نوع رویداد نامعتبر است."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "مورد درخواستی یافت نشد."
	case ErrExamNotFound:
		return "آزمون مورد نظر یافت نشد."
	case ErrAttemptNotFound:
		return "جلسه آزمون مورد نظر یافت نشد."
	case ErrQuestionNotInAttempt:
		return "این سؤال متعلق به آزمون شما نیست."
	case ErrConflict:
		return "درخواست با وضعیت فعلی سازگار نیست."

	// ─── Exam session ──────────────────────────────────────────────────
	case ErrExamNotActive:
		return "این آزمون در حال حاضر فعال نیست."
	case ErrAttemptExists:
		return "شما قبلاً این آزمون را شروع کرده‌اید. برای ادامه از گزینه ادامه آزمون استفاده کنید."
	case ErrAttemptNotOwned:
		return "این جلسه آزمون متعلق به شما نیست."
	case ErrInvalidSession:
		return "جلسه شما نامعتبر است. احتمالاً از دستگاه دیگری وارد آزمون شده‌اید."
	case ErrAttemptFinalized:
		return "این آزمون قبلاً ثبت نهایی شده است."
	case ErrNotGraded:
		return "نتیجه این آزمون هنوز آماده نیست."
	case ErrNotResumable:
		return "امکان ادامه این آزمون وجود ندارد."
	case ErrTimeExpired:
		return "زمان آزمون به پایان رسیده و پاسخ‌های شما به صورت خودکار ثبت شد."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "تعداد درخواست‌ها بیش از حد مجاز است. لطفاً کمی بعد دوباره تلاش کنید."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "خطای داخلی سرور رخ داد. لطفاً دوباره تلاش کنید."

	default:
		return "خطای ناشناخته رخ داد."
	}
}
