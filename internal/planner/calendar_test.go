package planner

import (
	"strings"
	"testing"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
)

func TestExportCalendar_ParseBack(t *testing.T) {
	sem := model.Semester{SemesterID: "s1", Name: "2025-2"}
	deadlines := []model.Deadline{
		{DeadlineID: "d2", Date: "2026-04-02", Label: "Práctica", Course: "Prog"},
		{DeadlineID: "d1", Date: "2026-03-10", Label: "PEC1", Course: "AL", Urgent: true},
		{DeadlineID: "bad", Date: "", Label: "Sin fecha", Course: "AL"},
	}
	out := ExportCalendar(sem, deadlines, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), CalendarOptions{})

	if !strings.Contains(out, "d1@uoc-planner") || !strings.Contains(out, DefaultProductID) {
		t.Errorf("缺少 UID 或 PRODID:\n%s", out)
	}
	if strings.Count(out, "BEGIN:VEVENT") != 2 {
		t.Errorf("无日期的截止日期不应导出:\n%s", out)
	}

	res, err := ParseCalendar(strings.NewReader(out), "", time.UTC)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(res.Deadlines) != 2 {
		t.Fatalf("期望 2 个截止日期，实际 %d", len(res.Deadlines))
	}
	first := res.Deadlines[0]
	if first.Date != "2026-03-10" || first.Label != "PEC1" || first.Course != "AL" || !first.Urgent {
		t.Errorf("第一个截止日期错误: %+v", first)
	}
	if res.Deadlines[1].Urgent {
		t.Error("非紧急截止日期不应标记紧急")
	}
}

func TestParseCalendar_DefaultCourseAndTimezone(t *testing.T) {
	raw := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:1",
		"DTSTART:20260310T230000Z",
		"SUMMARY:Entrega final",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:2",
		"DTSTART;VALUE=DATE:20260312",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("缺少时区数据")
	}
	res, err := ParseCalendar(strings.NewReader(raw), "Lab", madrid)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(res.Deadlines) != 1 || res.Skipped != 1 {
		t.Fatalf("期望 1 个截止日期、跳过 1 个，实际 %+v", res)
	}
	d := res.Deadlines[0]
	if d.Course != "Lab" {
		t.Errorf("缺少 CATEGORIES 时应使用默认课程，实际 %q", d.Course)
	}
	if d.Date != "2026-03-11" {
		t.Errorf("UTC 23:00 在马德里应为次日，实际 %s", d.Date)
	}
}

func TestParseCalendar_SkipsOverlongFields(t *testing.T) {
	raw := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:1",
		"DTSTART;VALUE=DATE:20260310",
		"SUMMARY:" + strings.Repeat("x", MaxDeadlineLabel+1),
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:2",
		"DTSTART;VALUE=DATE:20260311",
		"SUMMARY:PEC",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	res, err := ParseCalendar(strings.NewReader(raw), "AL", time.UTC)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(res.Deadlines) != 1 || res.Skipped != 1 || res.Deadlines[0].Label != "PEC" {
		t.Errorf("标题过长的事件应被跳过，实际 %+v", res)
	}

	res, err = ParseCalendar(strings.NewReader(raw), strings.Repeat("c", MaxCourse+1), time.UTC)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(res.Deadlines) != 0 || res.Skipped != 2 {
		t.Errorf("课程名过长时所有事件应被跳过，实际 %+v", res)
	}
}

func TestParseCalendar_Invalid(t *testing.T) {
	if _, err := ParseCalendar(strings.NewReader("not a calendar"), "AL", nil); err == nil {
		t.Error("非日历内容应返回错误")
	}
}
