package planner

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/edbrsk/uoc-planner/internal/model"
)

// ── iCalendar (RFC 5545) 截止日期导入导出 ──────────────────────
//
// 导出：每个截止日期一个全天 VEVENT
//   - SUMMARY = 标签，CATEGORIES = 课程，紧急时 PRIORITY=1
//   - UID = <deadline_id>@<域>，重复导出时日历客户端按 UID 去重
//
// 导入：只读取 DTSTART 的日历日期；带时间的事件先换算到给定时区再取日期。
// ─────────────────────────────────────────────────────────────

// DefaultProductID 日历 PRODID
const DefaultProductID = "-//uoc-planner//deadlines//ES"

// CalendarOptions 日历导出参数
type CalendarOptions struct {
	ProductID string
	UIDDomain string
	Location  *time.Location
}

// ExportCalendar 将学期的截止日期序列化为 .ics 文本
func ExportCalendar(sem model.Semester, deadlines []model.Deadline, now time.Time, opts CalendarOptions) string {
	if opts.ProductID == "" {
		opts.ProductID = DefaultProductID
	}
	if opts.UIDDomain == "" {
		opts.UIDDomain = "uoc-planner"
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(opts.ProductID)
	name := sem.Label
	if name == "" {
		name = model.DefaultLabel(sem.Name)
	}
	cal.SetXWRCalName(name)
	if opts.Location != nil {
		cal.SetXWRTimezone(opts.Location.String())
	}

	sorted := append([]model.Deadline(nil), deadlines...)
	SortDeadlines(sorted)
	for _, d := range sorted {
		day, ok := ParseISO(d.Date)
		if !ok {
			continue
		}
		evt := cal.AddEvent(fmt.Sprintf("%s@%s", d.DeadlineID, opts.UIDDomain))
		evt.SetDtStampTime(now.UTC())
		evt.SetAllDayStartAt(day)
		evt.SetAllDayEndAt(day.AddDate(0, 0, 1))
		evt.SetSummary(d.Label)
		if d.Course != "" {
			evt.SetProperty(ics.ComponentPropertyCategories, d.Course)
		}
		if d.Urgent {
			evt.SetProperty(ics.ComponentPropertyPriority, "1")
		}
	}
	return cal.Serialize()
}

// CalendarDeadline 从日历解析出的截止日期（尚未分配 id）
type CalendarDeadline struct {
	Date   string
	Label  string
	Course string
	Urgent bool
}

// CalendarImport 日历解析结果
type CalendarImport struct {
	Deadlines []CalendarDeadline
	Skipped   int // 缺少标题、日期或课程，或字段超长的事件
}

// ParseCalendar 解析 .ics 内容。没有 CATEGORIES 的事件归入 defaultCourse；
// defaultCourse 也为空时跳过该事件。
func ParseCalendar(r io.Reader, defaultCourse string, loc *time.Location) (CalendarImport, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return CalendarImport{}, fmt.Errorf("ICS 格式解析失败: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	var out CalendarImport
	for _, evt := range cal.Events() {
		d, ok := parseDeadlineEvent(evt, defaultCourse, loc)
		if !ok {
			out.Skipped++
			continue
		}
		out.Deadlines = append(out.Deadlines, d)
	}
	return out, nil
}

func parseDeadlineEvent(evt *ics.VEvent, defaultCourse string, loc *time.Location) (CalendarDeadline, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return CalendarDeadline{}, false
	}
	date, ok := eventDate(evt, loc)
	if !ok {
		return CalendarDeadline{}, false
	}

	course := defaultCourse
	if cat := evt.GetProperty(ics.ComponentPropertyCategories); cat != nil {
		if first := strings.TrimSpace(strings.Split(cat.Value, ",")[0]); first != "" {
			course = first
		}
	}
	label := strings.TrimSpace(summary.Value)
	if course == "" || tooLong(course, MaxCourse) || tooLong(label, MaxDeadlineLabel) {
		return CalendarDeadline{}, false
	}

	urgent := false
	if p := evt.GetProperty(ics.ComponentPropertyPriority); p != nil {
		// RFC 5545：1~4 为高优先级
		switch strings.TrimSpace(p.Value) {
		case "1", "2", "3", "4":
			urgent = true
		}
	}

	return CalendarDeadline{
		Date:   date,
		Label:  label,
		Course: course,
		Urgent: urgent,
	}, true
}

// eventDate 取 DTSTART 的日历日期
func eventDate(evt *ics.VEvent, loc *time.Location) (string, bool) {
	prop := evt.GetProperty(ics.ComponentPropertyDtStart)
	if prop == nil {
		return "", false
	}
	val := strings.TrimSpace(prop.Value)

	if t, err := time.Parse("20060102", val); err == nil {
		return FormatISO(t), true
	}
	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return FormatISO(dateOf(t.In(loc))), true
	}
	if t, err := time.Parse("20060102T150405", val); err == nil {
		// 浮动时间或 TZID 本地时间：直接取其日历日期
		return FormatISO(dateOf(t)), true
	}
	return "", false
}
