package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 表示输入缺失或格式不合法，操作没有任何副作用
	ErrValidation = errors.New("validation error")
	// ErrDuplicateAttendance 表示当天已打卡
	ErrDuplicateAttendance = errors.New("attendance already marked for today")
	// ErrInvalidAmount 表示扣分数值超出允许区间
	ErrInvalidAmount = errors.New("invalid penalty amount")
	// ErrForbidden 表示请求者不是资源作者或缺少管理权限
	ErrForbidden = errors.New("forbidden")
	// ErrEditWindowExpired 表示已超过可编辑时限
	ErrEditWindowExpired = errors.New("edit window expired")
	// ErrNotFound 表示引用的员工/日报/记录不存在
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials 登录用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	KindValidation          = "validation_error"
	KindDuplicateAttendance = "duplicate_attendance"
	KindInvalidAmount       = "invalid_amount"
	KindForbidden           = "forbidden"
	KindEditWindowExpired   = "edit_window_expired"
	KindNotFound            = "not_found"
	KindInvalidCredentials  = "invalid_credentials"
	KindInternal            = "internal"
)

// EditWindowExpiredError 携带已过去的小时数，便于客户端展示
type EditWindowExpiredError struct {
	HoursElapsed float64
}

func (e *EditWindowExpiredError) Error() string {
	return fmt.Sprintf("%s: %.1f hours since creation", ErrEditWindowExpired, e.HoursElapsed)
}

// Is 使 errors.Is(err, ErrEditWindowExpired) 成立
func (e *EditWindowExpiredError) Is(target error) bool {
	return target == ErrEditWindowExpired
}

// ErrorKind 返回错误对应的稳定机器可读类型
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDuplicateAttendance):
		return KindDuplicateAttendance
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrEditWindowExpired):
		return KindEditWindowExpired
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	default:
		return KindInternal
	}
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
