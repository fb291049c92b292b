package view

import (
	"github.com/gofiber/fiber/v2"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the body shape shared by every JSON response.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a success envelope with the given HTTP status.
func Success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// Error writes an error envelope. data is optional and carries field problems.
func Error(c *fiber.Ctx, status int, message string, data ...interface{}) error {
	env := Envelope{
		Status:  StatusError,
		Message: message,
	}
	if len(data) > 0 {
		env.Data = data[0]
	}
	return c.Status(status).JSON(env)
}
