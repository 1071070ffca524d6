package services

import "errors"

// NoticeLevel 提示级别
type NoticeLevel string

const (
	LevelSuccess NoticeLevel = "success"
	LevelInfo    NoticeLevel = "info"
	LevelWarning NoticeLevel = "warning"
	LevelError   NoticeLevel = "error"
)

// Notice 展示给用户的消息
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

func noticeFor(prefix string, err error) *Notice {
	level := LevelError
	if errors.Is(err, ErrValidation) {
		level = LevelWarning
	}
	return &Notice{Level: level, Text: prefix + ": " + err.Error()}
}
