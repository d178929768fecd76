package httptransport

import "github.com/gin-gonic/gin"

// APIResponse is the uniform envelope returned by every API endpoint.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

// RespondSuccess writes a successful response.
func RespondSuccess(c *gin.Context, httpStatus int, data interface{}, message string) {
	if message == "" {
		message = "ok"
	}

	resp := APIResponse{
		Success: true,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	}

	c.JSON(httpStatus, resp)
}

// RespondError writes a failed response.
func RespondError(c *gin.Context, httpStatus int, message string, data interface{}) {
	resp := APIResponse{
		Success: false,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	}

	c.JSON(httpStatus, resp)
}
