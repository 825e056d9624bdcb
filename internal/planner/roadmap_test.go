package planner

import (
	"testing"

	"github.com/edbrsk/uoc-planner/internal/model"
)

func TestBuildRoadmap_NoData(t *testing.T) {
	weeks := sampleWeeks()
	// 课程为空、周次不存在的任务都不产生事件
	tasks := []model.Task{{TaskID: "1", WeekNum: 1}, {TaskID: "2", WeekNum: 42, Course: "AL"}}
	deadlines := []model.Deadline{{DeadlineID: "1", Course: "AL"}}

	if rm, ok := BuildRoadmap(weeks, tasks, deadlines, day("2026-03-01"), LayoutOptions{}); ok || rm != nil {
		t.Errorf("期望无数据，实际 %+v", rm)
	}
	if _, ok := BuildRoadmap(nil, nil, nil, day("2026-03-01"), LayoutOptions{}); ok {
		t.Error("空输入应为无数据")
	}
}

func TestLayoutOptions_ZeroUsesDefaults(t *testing.T) {
	got := LayoutOptions{}.withDefaults()
	want := DefaultLayoutOptions()
	if got.DayPx != want.DayPx || got.CardW != want.CardW || got.CardH != want.CardH ||
		got.CardGap != want.CardGap || got.LabelW != want.LabelW || got.LanePad != want.LanePad || got.MinGap != want.MinGap {
		t.Errorf("零值字段应取默认值，实际 %+v", got)
	}
	if len(got.Palette) != len(want.Palette) {
		t.Errorf("调色板应取默认值，实际 %d 种颜色", len(got.Palette))
	}

	custom := LayoutOptions{CardGap: 4, MinGap: 2}.withDefaults()
	if custom.CardGap != 4 || custom.MinGap != 2 || custom.LabelW != want.LabelW {
		t.Errorf("显式设置的字段应保留，实际 %+v", custom)
	}
}

func TestBuildRoadmap_SameDayDeadlinesStack(t *testing.T) {
	weeks := model.WeekMap{1: structured("2026-02-17", "2026-02-23", "Intro")}
	deadlines := []model.Deadline{
		{DeadlineID: "a", Date: "2026-03-10", Label: "PEC1", Course: "AL"},
		{DeadlineID: "b", Date: "2026-03-10", Label: "PEC2", Course: "AL"},
	}

	rm, ok := BuildRoadmap(weeks, nil, deadlines, day("2026-03-01"), LayoutOptions{})
	if !ok {
		t.Fatal("期望有数据")
	}
	if len(rm.Lanes) != 1 || rm.Lanes[0].Course != "AL" {
		t.Fatalf("期望一条 AL 泳道，实际 %+v", rm.Lanes)
	}
	lane := rm.Lanes[0]
	if lane.Items[0].Row == lane.Items[1].Row {
		t.Error("同一天的两个截止日期应位于不同行")
	}
	if lane.Rows != 2 {
		t.Errorf("期望 2 行，实际 %d", lane.Rows)
	}
	if lane.Height != 12*2+2*(70+8) {
		t.Errorf("泳道高度错误: %d", lane.Height)
	}
	if lane.Items[0].ID != "dl-a" {
		t.Errorf("截止日期事件 id 应带 dl- 前缀，实际 %q", lane.Items[0].ID)
	}
}

func TestBuildRoadmap_BoundsAndOffsets(t *testing.T) {
	weeks := model.WeekMap{1: structured("2026-02-17", "2026-02-23", "Intro")}
	tasks := []model.Task{{TaskID: "t1", WeekNum: 1, Course: "Prog", Text: "Leer"}}
	deadlines := []model.Deadline{{DeadlineID: "d1", Date: "2026-03-10", Course: "AL"}}

	rm, ok := BuildRoadmap(weeks, tasks, deadlines, day("2026-02-01"), LayoutOptions{})
	if !ok {
		t.Fatal("期望有数据")
	}
	if rm.StartDate != "2026-02-01" || rm.EndDate != "2026-03-31" {
		t.Errorf("边界应对齐到整月，实际 %s ~ %s", rm.StartDate, rm.EndDate)
	}
	if rm.TotalDays != 59 {
		t.Errorf("期望 59 天，实际 %d", rm.TotalDays)
	}
	if rm.TotalWidth != 59*18+280+260+60 {
		t.Errorf("总宽度错误: %d", rm.TotalWidth)
	}
	if rm.TodayOffset != 280 {
		t.Errorf("今天位于起点时偏移应为标签列宽，实际 %d", rm.TodayOffset)
	}
	if len(rm.Months) != 2 || rm.Months[0].Label != "Febrero 2026" || rm.Months[1].Label != "Marzo 2026" {
		t.Errorf("月份标记错误: %+v", rm.Months)
	}
	if rm.Months[1].Offset != 28*18+280 {
		t.Errorf("三月标记偏移错误: %d", rm.Months[1].Offset)
	}

	// 课程排序：AL 在 Prog 之前，配色按下标分配
	if rm.Courses[0] != "AL" || rm.Lanes[0].Color != DefaultPalette[0] || rm.Lanes[1].Color != DefaultPalette[1] {
		t.Errorf("课程或配色顺序错误: %v", rm.Courses)
	}
	task := rm.Lanes[1].Items[0]
	if task.ID != "task-t1" || task.Date != "2026-02-17" || task.X != 16*18+280 {
		t.Errorf("任务应锚定在周开始日期，实际 %+v", task)
	}
}

func TestBuildRoadmap_WeeksWidenBounds(t *testing.T) {
	// 没有事件的周也参与边界计算
	weeks := model.WeekMap{
		1: structured("2026-02-17", "2026-02-23", ""),
		9: structured("2026-05-04", "2026-05-10", ""),
	}
	deadlines := []model.Deadline{{DeadlineID: "d", Date: "2026-03-10", Course: "AL"}}
	rm, _ := BuildRoadmap(weeks, nil, deadlines, day("2026-03-01"), LayoutOptions{})
	if rm.StartDate != "2026-02-01" || rm.EndDate != "2026-05-31" {
		t.Errorf("边界应包含所有周，实际 %s ~ %s", rm.StartDate, rm.EndDate)
	}
}

func TestBuildRoadmap_LegacyWeeks(t *testing.T) {
	weeks := model.WeekMap{1: {Num: 1, Dates: model.LegacyDates{Text: "Feb 17 – 23"}}}
	tasks := []model.Task{{TaskID: "t", WeekNum: 1, Course: "AL"}}
	rm, ok := BuildRoadmap(weeks, tasks, nil, day("2026-03-01"), LayoutOptions{})
	if !ok {
		t.Fatal("旧版文本周应可定位")
	}
	if rm.Lanes[0].Items[0].Date != "2026-02-17" {
		t.Errorf("期望 2026-02-17，实际 %s", rm.Lanes[0].Items[0].Date)
	}
}

func TestBuildRoadmap_NoOverlapWithinRow(t *testing.T) {
	weeks := model.WeekMap{}
	var deadlines []model.Deadline
	dates := []string{"2026-03-01", "2026-03-02", "2026-03-05", "2026-03-14", "2026-03-15", "2026-03-16", "2026-03-30", "2026-04-20"}
	for i, d := range dates {
		deadlines = append(deadlines, model.Deadline{DeadlineID: string(rune('a' + i)), Date: d, Course: "Redes"})
	}
	opts := DefaultLayoutOptions()
	rm, ok := BuildRoadmap(weeks, nil, deadlines, day("2026-03-01"), opts)
	if !ok {
		t.Fatal("期望有数据")
	}
	items := rm.Lanes[0].Items
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			if a.Row != b.Row {
				continue
			}
			if a.X < b.X+opts.CardW && b.X < a.X+opts.CardW {
				t.Errorf("同一行事件重叠: %+v / %+v", a, b)
			}
		}
	}
}

func TestBuildRoadmap_PaletteWraps(t *testing.T) {
	var deadlines []model.Deadline
	for i := 0; i < len(DefaultPalette)+1; i++ {
		deadlines = append(deadlines, model.Deadline{
			DeadlineID: string(rune('a' + i)), Date: "2026-03-10", Course: string(rune('A' + i)),
		})
	}
	rm, _ := BuildRoadmap(nil, nil, deadlines, day("2026-03-01"), LayoutOptions{})
	last := rm.Lanes[len(rm.Lanes)-1]
	if last.Color != DefaultPalette[0] {
		t.Errorf("第 %d 门课程应回绕到第一种配色", len(rm.Lanes))
	}
}
