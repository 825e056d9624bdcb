// Package planner 学期规划核心：日期运算、周次重算、进度推导、路线图布局与导入导出编解码。
// 包内函数均为纯函数，不做任何 I/O；"今天" 由调用方传入。
package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
)

// ISOLayout ISO 日期格式
const ISOLayout = "2006-01-02"

// monthShort 固定的西班牙语月份缩写表（全系统一致）
var monthShort = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// monthLong 路线图月份标记使用的完整月份名
var monthLong = [12]string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio", "Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}

// monthIndex 旧版文本解析用的月份表；额外接受英文独有的缩写
var monthIndex = map[string]time.Month{
	"ene": time.January, "jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"abr": time.April, "apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August, "aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dic": time.December, "dec": time.December,
}

var (
	monthDayRe = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2})$`)
	dayOnlyRe  = regexp.MustCompile(`^(\d{1,2})$`)
)

// ParseISO 解析 ISO 日期（UTC 零点）
func ParseISO(iso string) (time.Time, bool) {
	if iso == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(ISOLayout, iso)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatISO 格式化为 ISO 日期
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// dateOf 取本地日历日期，映射到 UTC 零点，便于按天相减
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween 两个 UTC 零点日期之间相差的整天数
func daysBetween(from, to time.Time) int {
	return int((to.Unix() - from.Unix()) / 86400)
}

// AddDays 在 ISO 日期上加减 n 天；输入无法解析时返回空串。
func AddDays(iso string, n int) string {
	t, ok := ParseISO(iso)
	if !ok {
		return ""
	}
	return FormatISO(t.AddDate(0, 0, n))
}

// FmtShort "2026-02-24" → "Feb 24"
func FmtShort(iso string) string {
	t, ok := ParseISO(iso)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %d", monthShort[t.Month()-1], t.Day())
}

// FmtRange 同月时合并月份："Feb 24 – 28"；跨月："Feb 24 – Mar 2"
func FmtRange(startISO, endISO string) string {
	s, ok1 := ParseISO(startISO)
	e, ok2 := ParseISO(endISO)
	if !ok1 || !ok2 {
		return ""
	}
	if s.Year() == e.Year() && s.Month() == e.Month() {
		return fmt.Sprintf("%s %d – %d", monthShort[s.Month()-1], s.Day(), e.Day())
	}
	return FmtShort(startISO) + " – " + FmtShort(endISO)
}

// DaysUntil 距目标日期的天数（两端都按当天 23:59:59 计算）。
// 今天为 0，明天为 1，昨天为 -1；无法解析时返回 0。
func DaysUntil(iso string, now time.Time) int {
	t, ok := ParseISO(iso)
	if !ok {
		return 0
	}
	return daysBetween(dateOf(now), t)
}

// ParseDatesText 解析旧版文本日期，如 "Feb 24 – Mar 2" 或 "Feb 17 – 23"。
// 任何不匹配都返回两个空串，调用方应回退为原文展示。
func ParseDatesText(text string, year int) (string, string) {
	if strings.TrimSpace(text) == "" {
		return "", ""
	}
	normalized := strings.NewReplacer("–", "-", "—", "-").Replace(text)
	parts := strings.Split(normalized, "-")
	if len(parts) != 2 {
		return "", ""
	}
	left := strings.TrimSpace(parts[0])
	right := strings.TrimSpace(parts[1])

	sm := monthDayRe.FindStringSubmatch(left)
	if sm == nil {
		return "", ""
	}
	startMonth, ok := monthIndex[strings.ToLower(sm[1])]
	if !ok {
		return "", ""
	}
	startDay, _ := strconv.Atoi(sm[2])

	endMonth := startMonth
	var endDay int
	if em := monthDayRe.FindStringSubmatch(right); em != nil {
		endMonth, ok = monthIndex[strings.ToLower(em[1])]
		if !ok {
			return "", ""
		}
		endDay, _ = strconv.Atoi(em[2])
	} else if dm := dayOnlyRe.FindStringSubmatch(right); dm != nil {
		endDay, _ = strconv.Atoi(dm[1])
	} else {
		return "", ""
	}

	start, ok := makeDate(year, startMonth, startDay)
	if !ok {
		return "", ""
	}
	end, ok := makeDate(year, endMonth, endDay)
	if !ok {
		return "", ""
	}
	// 跨年区间（"Dic 29 – Ene 4"）
	if end.Before(start) {
		end = end.AddDate(1, 0, 0)
	}
	return FormatISO(start), FormatISO(end)
}

func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ResolveWeek 返回周的 ISO 起止日期。
// 结构化日期只有一侧时按 7 天惯例补全另一侧；旧版文本按 year 解析。
func ResolveWeek(w model.Week, year int) (string, string, bool) {
	switch d := w.Dates.(type) {
	case model.StructuredDates:
		start, end := d.Start, d.End
		if _, ok := ParseISO(start); !ok {
			start = ""
		}
		if _, ok := ParseISO(end); !ok {
			end = ""
		}
		switch {
		case start != "" && end != "":
			return start, end, true
		case start != "":
			return start, AddDays(start, 6), true
		case end != "":
			return AddDays(end, -6), end, true
		}
	case model.LegacyDates:
		start, end := ParseDatesText(d.Text, year)
		if start != "" {
			return start, end, true
		}
	}
	return "", "", false
}

// WeekDatesLabel 周卡片上的日期文字：优先结构化区间，其次旧版原文
func WeekDatesLabel(w model.Week) string {
	switch d := w.Dates.(type) {
	case model.StructuredDates:
		return FmtRange(d.Start, d.End)
	case model.LegacyDates:
		return d.Text
	}
	return ""
}

// ── 截止日期倒计时 ──

// Urgency 倒计时紧急程度
type Urgency string

const (
	UrgencyPast     Urgency = "past"
	UrgencyCritical Urgency = "critical" // ≤ 3 天
	UrgencySoon     Urgency = "soon"     // ≤ 7 天
	UrgencyNormal   Urgency = "normal"
)

// UrgencyOf 由剩余天数得出紧急程度
func UrgencyOf(days int) Urgency {
	switch {
	case days < 0:
		return UrgencyPast
	case days <= 3:
		return UrgencyCritical
	case days <= 7:
		return UrgencySoon
	default:
		return UrgencyNormal
	}
}

// Imminent 0~10 天内到期
func Imminent(days int) bool {
	return days >= 0 && days <= 10
}

// CountdownLabel 倒计时文字
func CountdownLabel(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("hace %dd", -days)
	case days == 0:
		return "Hoy!"
	case days == 1:
		return "Mañana!"
	default:
		return fmt.Sprintf("%d días", days)
	}
}
