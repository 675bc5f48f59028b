package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/service"
)

const dateFormat = "2006-01-02"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message, "kind": service.KindValidation})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("%s: %s", message, describeBindError(err)))
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parseUintQuerySlice(values []string) []uint {
	ids := make([]uint, 0, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			parsed, err := strconv.ParseUint(trimmed, 10, 32)
			if err != nil {
				continue
			}
			ids = append(ids, uint(parsed))
		}
	}
	return ids
}

func parseIntQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return value, nil
}

// parseDateQuery 解析 YYYY-MM-DD，空值返回 nil
func (a *API) parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dateFormat, raw, a.location)
	if err != nil {
		return nil, fmt.Errorf("invalid %s, expected YYYY-MM-DD", key)
	}
	return &parsed, nil
}

// handleServiceError 将服务层错误映射为 HTTP 状态码与稳定的 kind 字段
func handleServiceError(c *gin.Context, err error) {
	kind := service.ErrorKind(err)
	body := gin.H{"error": err.Error(), "kind": kind}

	status := http.StatusInternalServerError
	switch kind {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindInvalidAmount:
		status = http.StatusUnprocessableEntity
	case service.KindDuplicateAttendance:
		status = http.StatusConflict
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindEditWindowExpired:
		status = http.StatusForbidden
		var expired *service.EditWindowExpiredError
		if errors.As(err, &expired) {
			body["hours_elapsed"] = expired.HoursElapsed
		}
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindInvalidCredentials:
		status = http.StatusUnauthorized
	default:
		log.Printf("[api] %s %s: %v", c.Request.Method, c.FullPath(), err)
		body["error"] = "internal error"
	}

	c.JSON(status, body)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatUint(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
