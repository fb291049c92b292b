package util

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const ForwardedForHeader = "X-Forwarded-For"

// ClientIP returns the first X-Forwarded-For entry when trusted and it parses
// as an IP, otherwise the connection address.
func ClientIP(c *fiber.Ctx, trustForwarded bool) string {
	if trustForwarded {
		if forwarded := c.Get(ForwardedForHeader); forwarded != "" {
			first := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])
			if net.ParseIP(first) != nil {
				return first
			}
		}
	}
	return c.IP()
}
