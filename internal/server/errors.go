package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/routemetrics/feature"
	"github.com/ceyewan/routemetrics/xerrors"
)

// 错误类型
const (
	ErrorTypeInvalidRequest = "invalid_request"
	ErrorTypeInternal       = "internal"
	ErrorTypeSystem         = "system"
)

// 错误码
const (
	CodeTaskNotFound        = "task_not_found"
	CodeInvalidTaskUID      = "invalid_task_uid"
	CodeInvalidIndexUID     = "invalid_index_uid"
	CodeBadRequest          = "bad_request"
	CodeFeatureNotEnabled   = feature.CodeFeatureNotEnabled
	CodeUnavailable         = "service_unavailable"
	CodeInternal            = "internal"
	CodeAPIKeyNotFound      = "api_key_not_found"
	CodeMissingRequiredBody = "missing_payload"
)

const errorLinkBase = "https://docs.meilisearch.com/errors#"

// ResponseError 错误响应体
type ResponseError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
	Link    string `json:"link"`

	status int
}

// NewResponseError 创建错误响应
func NewResponseError(status int, code, typ, message string) *ResponseError {
	return &ResponseError{
		Message: message,
		Code:    code,
		Type:    typ,
		Link:    errorLinkBase + code,
		status:  status,
	}
}

func (e *ResponseError) Error() string {
	return e.Code + ": " + e.Message
}

// Status HTTP 状态码
func (e *ResponseError) Status() int {
	return e.status
}

// responseErrorFrom 将领域错误映射为响应
func responseErrorFrom(err error) *ResponseError {
	var re *ResponseError
	switch {
	case xerrors.As(err, &re):
		return re
	case feature.IsNotEnabled(err):
		return NewResponseError(http.StatusBadRequest, CodeFeatureNotEnabled, ErrorTypeInvalidRequest, codedMessage(err))
	case xerrors.Is(err, xerrors.ErrNotFound):
		return NewResponseError(http.StatusNotFound, CodeTaskNotFound, ErrorTypeInvalidRequest, err.Error())
	case xerrors.Is(err, xerrors.ErrInvalidInput):
		return NewResponseError(http.StatusBadRequest, CodeBadRequest, ErrorTypeInvalidRequest, err.Error())
	case xerrors.Is(err, xerrors.ErrUnavailable):
		return NewResponseError(http.StatusServiceUnavailable, CodeUnavailable, ErrorTypeSystem, err.Error())
	default:
		return NewResponseError(http.StatusInternalServerError, CodeInternal, ErrorTypeInternal, "internal error")
	}
}

func codedMessage(err error) string {
	var coded *xerrors.CodedError
	if xerrors.As(err, &coded) {
		return coded.Message()
	}
	return err.Error()
}

// abortWithError 写出错误响应，并把 err 挂到 c.Errors 上供中间件读取
func abortWithError(c *gin.Context, err error) {
	re := responseErrorFrom(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(re.Status(), re)
}
