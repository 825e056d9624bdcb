package planner

import (
	"math"
	"unicode/utf8"
)

// ── 字段长度上限（字符数），与远程存储的列宽一致 ──

const (
	MaxSemesterName  = 100
	MaxSemesterLabel = 200
	MaxCourse        = 50
	MaxTaskText      = 500
	MaxDeadlineLabel = 300
	MaxWeekNum       = math.MaxInt16
	MaxOrder         = math.MaxInt32
)

// tooLong 按字符计数
func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
