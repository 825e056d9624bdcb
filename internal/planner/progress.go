package planner

import (
	"math"
	"sort"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
)

// AllCourses 课程筛选器中表示"不筛选"的取值
const AllCourses = "All"

// FallbackCourses 学期尚无任务/截止日期时提供的默认课程列表
var FallbackCourses = []string{"AL", "Prob", "Prog", "Redes", "Lab"}

// CurrentWeek 根据今天推算当前周：floor((今天 - 学期开始) / 7 天) + 1，
// 并夹在 [1, 最大周次号] 之间。无开始日期或无周时为 1。
func CurrentWeek(semesterStart string, weeks model.WeekMap, today time.Time) int {
	start, ok := ParseISO(semesterStart)
	if !ok || len(weeks) == 0 {
		return 1
	}
	days := daysBetween(start, dateOf(today))
	diff := floorDiv(days, 7) + 1
	max := weeks.MaxNum()
	if diff > max {
		diff = max
	}
	if diff < 1 {
		diff = 1
	}
	return diff
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// MatchCourse 课程是否通过筛选
func MatchCourse(course, filter string) bool {
	return filter == "" || filter == AllCourses || course == filter
}

// ProgressPercent 所有周内（经课程筛选后）已完成任务占比，四舍五入到整数。
// 周次不存在的任务不计入；没有任务时为 0。
func ProgressPercent(weeks model.WeekMap, tasks []model.Task, filter string) int {
	done, total := 0, 0
	for _, t := range tasks {
		if _, ok := weeks[t.WeekNum]; !ok {
			continue
		}
		if !MatchCourse(t.Course, filter) {
			continue
		}
		total++
		if t.Done {
			done++
		}
	}
	return percent(done, total)
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}

// WeekProgress 单周进度
type WeekProgress struct {
	WeekNum int
	Done    int
	Total   int
	Percent int
}

// ProgressByWeek 按周统计进度（经课程筛选），按周次号升序
func ProgressByWeek(weeks model.WeekMap, tasks []model.Task, filter string) []WeekProgress {
	counts := make(map[int]*WeekProgress, len(weeks))
	for _, n := range weeks.Nums() {
		counts[n] = &WeekProgress{WeekNum: n}
	}
	for _, t := range tasks {
		wp, ok := counts[t.WeekNum]
		if !ok || !MatchCourse(t.Course, filter) {
			continue
		}
		wp.Total++
		if t.Done {
			wp.Done++
		}
	}
	out := make([]WeekProgress, 0, len(counts))
	for _, n := range weeks.Nums() {
		wp := counts[n]
		wp.Percent = percent(wp.Done, wp.Total)
		out = append(out, *wp)
	}
	return out
}

// Courses 从任务与截止日期中推导课程集合（去重、排序、忽略空值）
func Courses(tasks []model.Task, deadlines []model.Deadline) []string {
	set := make(map[string]struct{})
	for _, t := range tasks {
		if t.Course != "" {
			set[t.Course] = struct{}{}
		}
	}
	for _, d := range deadlines {
		if d.Course != "" {
			set[d.Course] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// CoursesOrFallback 没有任何课程时返回默认课程列表
func CoursesOrFallback(tasks []model.Task, deadlines []model.Deadline) []string {
	courses := Courses(tasks, deadlines)
	if len(courses) == 0 {
		return append([]string(nil), FallbackCourses...)
	}
	return courses
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WeekTasks 某周任务（经课程筛选），按 order 升序
func WeekTasks(tasks []model.Task, weekNum int, filter string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.WeekNum == weekNum && MatchCourse(t.Course, filter) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// SortDeadlines 按日期升序，同日按 order 升序（原地排序）
func SortDeadlines(deadlines []model.Deadline) {
	sort.SliceStable(deadlines, func(i, j int) bool {
		if deadlines[i].Date != deadlines[j].Date {
			return deadlines[i].Date < deadlines[j].Date
		}
		return deadlines[i].Order < deadlines[j].Order
	})
}
