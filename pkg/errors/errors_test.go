package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeInvalidInput, "参数错误")

	if err.Code != CodeInvalidInput {
		t.Errorf("Expected code %s, got %s", CodeInvalidInput, err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", err.HTTPStatus)
	}
	if !strings.Contains(err.Error(), "INVALID_INPUT") {
		t.Errorf("Error string should contain code, got %q", err.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, CodeDatabaseError, "查询失败")

	if !stderrors.Is(err, cause) {
		t.Error("Wrapped error should match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error string should contain cause, got %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := InvalidTimeRange("结束早于开始")

	if !Is(err, CodeInvalidTimeRange) {
		t.Error("Expected Is to match CodeInvalidTimeRange")
	}
	if Is(err, CodeNotFound) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), CodeInvalidTimeRange) {
		t.Error("Is should not match a plain error")
	}

	// 包装后仍可识别
	wrapped := fmt.Errorf("outer: %w", err)
	if !Is(wrapped, CodeInvalidTimeRange) {
		t.Error("Is should match through wrapping")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(NotFound("worker", "w1")); got != CodeNotFound {
		t.Errorf("Expected NOT_FOUND, got %s", got)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Errorf("Expected UNKNOWN for plain error, got %s", got)
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{InvalidInput("field", "为空"), http.StatusBadRequest},
		{InvalidTimeRange("无效"), http.StatusBadRequest},
		{NotFound("role", "r1"), http.StatusNotFound},
		{CommitmentConflict("w1", "重叠"), http.StatusConflict},
		{NoAvailableWorker("r1", "池为空"), http.StatusUnprocessableEntity},
		{RepositoryUnavailable("commitments", stderrors.New("down")), http.StatusServiceUnavailable},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := GetHTTPStatus(tt.err); got != tt.want {
			t.Errorf("GetHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWithHelpers(t *testing.T) {
	cause := stderrors.New("root")
	err := New(CodeInternal, "内部错误").
		WithDetails("处理失败").
		WithCause(cause).
		WithField("worker_id", "w1")

	if err.Details != "处理失败" {
		t.Errorf("Unexpected details %q", err.Details)
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return cause")
	}
	if err.Fields["worker_id"] != "w1" {
		t.Errorf("Unexpected field value %v", err.Fields["worker_id"])
	}
}

func TestValidationErrors(t *testing.T) {
	var ve ValidationErrors

	if ve.HasErrors() {
		t.Error("Empty collection should have no errors")
	}

	ve.Add("quantity", "必须不小于1")
	ve.Add("role_id", "不能为空")

	if !ve.HasErrors() {
		t.Error("Expected errors after Add")
	}
	if !strings.Contains(ve.Error(), "quantity") {
		t.Errorf("Error string should mention first field, got %q", ve.Error())
	}

	appErr := ve.ToAppError()
	if appErr.Code != CodeValidationFail {
		t.Errorf("Expected VALIDATION_FAILED, got %s", appErr.Code)
	}
	if len(appErr.Fields) != 2 {
		t.Errorf("Expected 2 fields, got %d", len(appErr.Fields))
	}
	if appErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", appErr.HTTPStatus)
	}
}
