// Package response renders the JSON envelope every API endpoint returns.
package response

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the wire shape of every response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// OK writes a successful envelope around data.
func OK(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// OKMessage writes a successful envelope with a message and optional data.
func OKMessage(c echo.Context, status int, data interface{}, msg string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: msg})
}

// Fail writes an error envelope. code is a short machine-readable category.
func Fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, Envelope{Success: false, Error: code, Message: msg})
}
