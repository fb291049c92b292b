package service

import (
	"github.com/mssola/user_agent"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceBot     = "bot"
)

type uaInfo struct {
	Browser    string
	OS         string
	DeviceType string
}

func parseUserAgent(raw string) uaInfo {
	if raw == "" {
		return uaInfo{}
	}
	ua := user_agent.New(raw)

	browser, _ := ua.Browser()
	deviceType := DeviceDesktop
	if ua.Bot() {
		deviceType = DeviceBot
	} else if ua.Mobile() {
		deviceType = DeviceMobile
	}

	return uaInfo{
		Browser:    browser,
		OS:         ua.OS(),
		DeviceType: deviceType,
	}
}
