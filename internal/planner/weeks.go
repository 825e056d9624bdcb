package planner

import (
	"sort"

	"github.com/edbrsk/uoc-planner/internal/model"
)

// Bounds 学期整体起止日期
type Bounds struct {
	StartDate string
	EndDate   string
}

// RecalcResult 周次重算结果
type RecalcResult struct {
	Weeks        model.WeekMap
	Bounds       Bounds
	Inserted     bool // editedNum 原本不存在
	Recalculated int  // 被连带重算的其他周数量
}

// RecalcWeeks 编辑一周后重算其余所有周，使相邻周保持首尾相接的 7 天区间。
//
// 步骤：
//  1. 直接应用对 editedNum 的修改（不存在则视为新增）
//  2. 按周次号升序定位被编辑周
//  3. 向前回推：每周结束 = 后一周开始 - 1 天，开始 = 结束 - 6 天
//  4. 向后推进：每周开始 = 前一周结束 + 1 天，结束 = 开始 + 6 天
//  5. 学期起止 = 最早一周开始 / 最晚一周结束
//
// 只遍历已存在的周次号，编号空缺不会被补齐。newStart/newEnd 无法解析
// 或 editedNum 非正数时原样返回输入（不做任何修改）。
// 输入映射不会被修改。
func RecalcWeeks(weeks model.WeekMap, editedNum int, newStart, newEnd, newTitle string) RecalcResult {
	if _, ok := ParseISO(newStart); !ok || editedNum <= 0 {
		return unchanged(weeks)
	}
	if _, ok := ParseISO(newEnd); !ok {
		return unchanged(weeks)
	}

	updated := weeks.Clone()
	_, existed := updated[editedNum]
	updated[editedNum] = model.Week{
		Num:   editedNum,
		Title: newTitle,
		Dates: model.StructuredDates{Start: newStart, End: newEnd},
	}

	sorted := updated.Nums()
	idx := sort.SearchInts(sorted, editedNum)

	// 向前回推
	for i := idx - 1; i >= 0; i-- {
		next := updated[sorted[i+1]].Dates.(model.StructuredDates)
		end := AddDays(next.Start, -1)
		setDates(updated, sorted[i], AddDays(end, -6), end)
	}

	// 向后推进
	for i := idx + 1; i < len(sorted); i++ {
		prev := updated[sorted[i-1]].Dates.(model.StructuredDates)
		start := AddDays(prev.End, 1)
		setDates(updated, sorted[i], start, AddDays(start, 6))
	}

	return RecalcResult{
		Weeks:        updated,
		Bounds:       WeekBounds(updated, 0),
		Inserted:     !existed,
		Recalculated: len(sorted) - 1,
	}
}

func setDates(weeks model.WeekMap, num int, start, end string) {
	w := weeks[num]
	w.Num = num
	w.Dates = model.StructuredDates{Start: start, End: end}
	weeks[num] = w
}

func unchanged(weeks model.WeekMap) RecalcResult {
	cp := weeks.Clone()
	return RecalcResult{Weeks: cp, Bounds: WeekBounds(cp, 0)}
}

// WeekBounds 学期起止：最小周次的开始日期与最大周次的结束日期。
// 对应周日期无法解析时该侧为空串。year 用于旧版文本（0 表示不解析旧版文本）。
func WeekBounds(weeks model.WeekMap, year int) Bounds {
	nums := weeks.Nums()
	if len(nums) == 0 {
		return Bounds{}
	}
	var b Bounds
	if start, _, ok := resolveForBounds(weeks[nums[0]], year); ok {
		b.StartDate = start
	}
	if _, end, ok := resolveForBounds(weeks[nums[len(nums)-1]], year); ok {
		b.EndDate = end
	}
	return b
}

func resolveForBounds(w model.Week, year int) (string, string, bool) {
	if _, legacy := w.Dates.(model.LegacyDates); legacy && year == 0 {
		return "", "", false
	}
	return ResolveWeek(w, year)
}

// RemoveWeek 删除一周。相邻周的日期保持不变，不触发重算。
func RemoveWeek(weeks model.WeekMap, num int) (model.WeekMap, bool) {
	updated := weeks.Clone()
	if _, ok := updated[num]; !ok {
		return updated, false
	}
	delete(updated, num)
	return updated, true
}

// NextWeekNum 新增周时建议的周次号
func NextWeekNum(weeks model.WeekMap) int {
	return weeks.MaxNum() + 1
}
