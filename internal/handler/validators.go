package handler

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/teampulse/internal/service"
)

var registerValidatorsOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册业务校验标签，可重复调用
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
			_, err := service.ParseAttendanceStatus(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("task_priority", func(fl validator.FieldLevel) bool {
			_, err := service.NormalizePriority(fl.Field().String())
			return err == nil
		})
	})
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "attendance_status":
			parts = append(parts, fmt.Sprintf("%s %q is not a recognized attendance status", field, fe.Value()))
		case "task_priority":
			parts = append(parts, fmt.Sprintf("%s %q must be low, medium or high", field, fe.Value()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
