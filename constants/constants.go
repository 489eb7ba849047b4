package constants

const (
	ERROR_INPUT              = "Dữ liệu không hợp lệ"
	DATA_INPUT_IS_NOT_NUMBER = "Tham số phải là số"
	NOT_ADMIN                = "Không có quyền truy cập"
	ERROR_INTERNAL_ERROR     = "Lỗi hệ thống"
	MISSING_LOGIN_INPUT      = "Thiếu tên đăng nhập hoặc mật khẩu"
	INVALID_USERNAME         = "Tên đăng nhập không tồn tại"
	INVALID_PASSWORD         = "Mật khẩu không đúng"
	ACCOUNT_NOT_ACTIVE       = "Tài khoản đã bị khoá"

	SEAT_UNAVAILABLE     = "SEAT_UNAVAILABLE"
	HOLD_EXPIRED         = "HOLD_EXPIRED"
	CONCURRENT_MODIFIED  = "CONCURRENT_MODIFICATION"
	BOOKING_NOT_FOUND    = "BOOKING_NOT_FOUND"
	ILLEGAL_TRANSITION   = "ILLEGAL_TRANSITION"
	PROMOTION_NOT_FOUND  = "PROMOTION_NOT_FOUND"
	PROMOTION_INELIGIBLE = "PROMOTION_INELIGIBLE"
	PROMOTION_EXHAUSTED  = "PROMOTION_EXHAUSTED"
	TICKET_NOT_FOUND     = "TICKET_NOT_FOUND"
	TICKET_ALREADY_USED  = "TICKET_ALREADY_USED"
	INVALID_CODE         = "INVALID_CODE"
)
