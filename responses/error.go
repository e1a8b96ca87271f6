package responses

import (
	"fmt"
	"net/http"
)

// Error describes an error for humans and machines
type Error struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return fmt.Sprintf("status:%d, code:%d, message:%q", e.Status, e.Code, e.Message)
}

// NewError - a brand new error
func NewError(status, code int, message string) *Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &Error{
		Status:  status,
		Code:    code,
		Message: message,
	}
}
