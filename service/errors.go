// Package service chứa lõi đặt ghế: giữ ghế, vòng đời booking, mã khuyến
// mãi, phát hành vé và check-in. Mọi bất biến liên-request (độc quyền ghế,
// trần lượt dùng mã, vé dùng một lần) được bảo đảm bằng compare-and-set
// trên bản ghi chia sẻ, không dùng khoá toàn cục.
package service

import "errors"

var (
	ErrSeatUnavailable        = errors.New("seat unavailable")
	ErrHoldExpired            = errors.New("hold expired")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrIllegalTransition      = errors.New("illegal transition")
	ErrPromotionNotFound      = errors.New("promotion not found")
	ErrPromotionIneligible    = errors.New("promotion ineligible")
	ErrPromotionExhausted     = errors.New("promotion exhausted")
	ErrTicketNotFound         = errors.New("ticket not found")
	ErrTicketAlreadyUsed      = errors.New("ticket already used")
	ErrInvalidCode            = errors.New("invalid code")
)
