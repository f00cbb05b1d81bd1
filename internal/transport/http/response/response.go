package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                  = 0
	CodeBadRequest          = 40000
	CodeUsernameExists      = 40001
	CodeEmailExists         = 40002
	CodeValidation          = 40003
	CodeUnauthorized        = 40100
	CodeInvalidCredentials  = 40101
	CodeInsufficientCredits = 40201
	CodeForbidden           = 40301
	CodeNotFound            = 40401
	CodeInternalServer      = 50000
	CodeMalformedGeneration = 50001
	CodeStorage             = 50002
	CodeExternalService     = 50301
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetail attaches machine-readable detail (field errors, retry
// hints, credit counts) to an error envelope.
func ErrorWithDetail(c *gin.Context, httpStatus, code int, message string, detail interface{}) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
		Data:    detail,
	})
}
