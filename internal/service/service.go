package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/config"
	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/model"
	"github.com/edbrsk/uoc-planner/internal/planner"
	"github.com/edbrsk/uoc-planner/internal/repository"
	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
)

// ── 通用业务错误 ──

var (
	ErrSemesterNotFound = errors.New("学期不存在")
	ErrCascadeFailed    = errors.New("级联删除失败，已回滚")
)

// RoadmapCache 路线图布局缓存。*redis.Client 满足该接口；为 nil 时不缓存。
type RoadmapCache interface {
	GetRoadmap(ctx context.Context, semesterID, today string) ([]byte, bool, error)
	SetRoadmap(ctx context.Context, semesterID, today string, payload []byte, ttl time.Duration) error
	InvalidateRoadmap(ctx context.Context, semesterID string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Semester SemesterService
	Week     WeekService
	Task     TaskService
	Deadline DeadlineService
	Note     NoteService
	Transfer TransferService
	Roadmap  RoadmapService
	Export   ExportService
}

// Options 构造 Service 时可替换的依赖
type Options struct {
	Now        func() time.Time
	NewID      func() string
	Cache      RoadmapCache
	RoadmapTTL time.Duration
	Layout     planner.LayoutOptions
	Calendar   planner.CalendarOptions
}

// OptionsFromConfig 由配置生成默认 Options（时钟与 id 生成器使用默认实现）
func OptionsFromConfig(cfg *config.Config, cache RoadmapCache) Options {
	return Options{
		Cache:      cache,
		RoadmapTTL: cfg.Redis.RoadmapTTL,
		Layout: planner.LayoutOptions{
			DayPx:   cfg.Roadmap.DayPx,
			CardW:   cfg.Roadmap.CardW,
			CardH:   cfg.Roadmap.CardH,
			CardGap: cfg.Roadmap.CardGap,
			LabelW:  cfg.Roadmap.LabelW,
			LanePad: cfg.Roadmap.LanePad,
			MinGap:  cfg.Roadmap.MinGap,
		},
		Calendar: planner.CalendarOptions{
			ProductID: cfg.Calendar.ProductID,
			UIDDomain: cfg.Calendar.UIDDomain,
			Location:  cfg.Calendar.Location(),
		},
	}
}

// NewService 创建 Service 聚合
func NewService(repo *repository.Repository, opts Options, logger *zap.Logger) *Service {
	b := newBase(repo, opts, logger)
	return &Service{
		Semester: &semesterService{base: b},
		Week:     &weekService{base: b},
		Task:     &taskService{base: b},
		Deadline: &deadlineService{base: b},
		Note:     &noteService{base: b},
		Transfer: &transferService{base: b},
		Roadmap:  &roadmapService{base: b, layout: opts.Layout, ttl: opts.RoadmapTTL},
		Export:   &exportService{base: b, calendar: opts.Calendar},
	}
}

// ── 各 Service 共享的依赖与辅助方法 ──

type base struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
	cache  RoadmapCache
}

func newBase(repo *repository.Repository, opts Options, logger *zap.Logger) *base {
	b := &base{repo: repo, logger: logger, now: opts.Now, newID: opts.NewID, cache: opts.Cache}
	if b.now == nil {
		b.now = time.Now
	}
	if b.newID == nil {
		b.newID = newUUID
	}
	return b
}

// semester 按 owner 读取学期，不存在时返回 ErrSemesterNotFound
func (b *base) semester(ctx context.Context, repo *repository.Repository, ownerID, id string) (*model.Semester, error) {
	if !validID(id) {
		return nil, ErrSemesterNotFound
	}
	sem, err := repo.Semester.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		b.logger.Error("查询学期失败", zap.String("semester_id", id), zap.Error(err))
		return nil, err
	}
	return sem, nil
}

// overview 重新读取任务与截止日期并计算派生视图
func (b *base) overview(ctx context.Context, sem *model.Semester, filter string) (dto.OverviewResponse, error) {
	tasks, err := b.repo.Task.ListBySemester(ctx, sem.SemesterID)
	if err != nil {
		b.logger.Error("查询任务失败", zap.String("semester_id", sem.SemesterID), zap.Error(err))
		return dto.OverviewResponse{}, err
	}
	deadlines, err := b.repo.Deadline.ListBySemester(ctx, sem.SemesterID)
	if err != nil {
		b.logger.Error("查询截止日期失败", zap.String("semester_id", sem.SemesterID), zap.Error(err))
		return dto.OverviewResponse{}, err
	}
	return buildOverview(sem, tasks, deadlines, filter, b.now()), nil
}

// afterWrite 写入后失效路线图缓存；缓存失败只记日志
func (b *base) afterWrite(ctx context.Context, semesterID string) {
	if b.cache == nil {
		return
	}
	if err := b.cache.InvalidateRoadmap(ctx, semesterID); err != nil {
		b.logger.Warn("路线图缓存失效失败", zap.String("semester_id", semesterID), zap.Error(err))
	}
}

// ── 派生视图计算 ──

func buildOverview(sem *model.Semester, tasks []model.Task, deadlines []model.Deadline, filter string, now time.Time) dto.OverviewResponse {
	if filter == "" {
		filter = planner.AllCourses
	}
	current := planner.CurrentWeek(sem.StartDate, sem.Weeks, now)
	progress := planner.ProgressByWeek(sem.Weeks, tasks, filter)

	weeks := make([]dto.WeekResponse, 0, len(progress))
	for _, wp := range progress {
		weeks = append(weeks, toWeekResponse(sem.Weeks[wp.WeekNum], wp, wp.WeekNum == current))
	}

	return dto.OverviewResponse{
		CurrentWeek:  current,
		Progress:     planner.ProgressPercent(sem.Weeks, tasks, filter),
		CourseFilter: filter,
		Courses:      planner.CoursesOrFallback(tasks, deadlines),
		NextWeekNum:  planner.NextWeekNum(sem.Weeks),
		Weeks:        weeks,
	}
}

func toWeekResponse(w model.Week, wp planner.WeekProgress, isCurrent bool) dto.WeekResponse {
	resp := dto.WeekResponse{
		Num:        wp.WeekNum,
		Title:      w.Title,
		DatesLabel: planner.WeekDatesLabel(w),
		IsCurrent:  isCurrent,
		Done:       wp.Done,
		Total:      wp.Total,
		Percent:    wp.Percent,
	}
	switch d := w.Dates.(type) {
	case model.StructuredDates:
		resp.StartDate = d.Start
		resp.EndDate = d.End
	case model.LegacyDates:
		resp.DatesText = d.Text
	}
	return resp
}

func toSemesterResponse(s *model.Semester) dto.SemesterResponse {
	return dto.SemesterResponse{
		ID:        s.SemesterID,
		Name:      s.Name,
		Label:     s.Label,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		WeekCount: len(s.Weeks),
		Version:   s.Version,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

// noteTaskIDs 有笔记的任务 id（升序去重）
func noteTaskIDs(notes []model.Note) []string {
	set := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		set[n.TaskID] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func newUUID() string {
	return uuid.NewString()
}

// validID 主键均为标准格式 UUID；格式不符的 id 在两种存储下都视为不存在
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
