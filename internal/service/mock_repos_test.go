package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
	"github.com/edbrsk/uoc-planner/internal/repository"
	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
)

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
	updates   int
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	if semester.Version == 0 {
		semester.Version = 1
	}
	cp := *semester
	cp.Weeks = semester.Weeks.Clone()
	m.semesters[semester.SemesterID] = &cp
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, ownerID, id string) (*model.Semester, error) {
	s, ok := m.semesters[id]
	if !ok || s.OwnerID != ownerID {
		return nil, pkgerrors.ErrRecordNotFound
	}
	cp := *s
	cp.Weeks = s.Weeks.Clone()
	return &cp, nil
}

func (m *mockSemesterRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Semester, error) {
	var result []model.Semester
	for _, s := range m.semesters {
		if s.OwnerID == ownerID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockSemesterRepo) Update(_ context.Context, semester *model.Semester) error {
	stored, ok := m.semesters[semester.SemesterID]
	if !ok || stored.OwnerID != semester.OwnerID || stored.Version != semester.Version {
		return pkgerrors.ErrOptimisticLock
	}
	semester.Version++
	cp := *semester
	cp.Weeks = semester.Weeks.Clone()
	m.semesters[semester.SemesterID] = &cp
	m.updates++
	return nil
}

func (m *mockSemesterRepo) Delete(_ context.Context, ownerID, id string) error {
	s, ok := m.semesters[id]
	if !ok || s.OwnerID != ownerID {
		return pkgerrors.ErrRecordNotFound
	}
	delete(m.semesters, id)
	return nil
}

// ── Mock TaskRepository ──

type mockTaskRepo struct {
	tasks map[string]*model.Task
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]*model.Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	cp := *task
	m.tasks[task.TaskID] = &cp
	return nil
}

func (m *mockTaskRepo) CreateBatch(ctx context.Context, tasks []model.Task) error {
	for i := range tasks {
		_ = m.Create(ctx, &tasks[i])
	}
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, semesterID, id string) (*model.Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.SemesterID != semesterID {
		return nil, pkgerrors.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockTaskRepo) ListBySemester(_ context.Context, semesterID string) ([]model.Task, error) {
	var result []model.Task
	for _, t := range m.tasks {
		if t.SemesterID == semesterID {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].WeekNum != result[j].WeekNum {
			return result[i].WeekNum < result[j].WeekNum
		}
		return result[i].Order < result[j].Order
	})
	return result, nil
}

func (m *mockTaskRepo) ListByWeek(ctx context.Context, semesterID string, weekNum int) ([]model.Task, error) {
	all, _ := m.ListBySemester(ctx, semesterID)
	var result []model.Task
	for _, t := range all {
		if t.WeekNum == weekNum {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) CountByWeek(ctx context.Context, semesterID string, weekNum int) (int64, error) {
	week, _ := m.ListByWeek(ctx, semesterID, weekNum)
	return int64(len(week)), nil
}

func (m *mockTaskRepo) Update(_ context.Context, task *model.Task) error {
	t, ok := m.tasks[task.TaskID]
	if !ok || t.SemesterID != task.SemesterID {
		return pkgerrors.ErrRecordNotFound
	}
	t.Course, t.Text, t.Done = task.Course, task.Text, task.Done
	return nil
}

func (m *mockTaskRepo) SetDone(_ context.Context, semesterID, id string, done bool) error {
	t, ok := m.tasks[id]
	if !ok || t.SemesterID != semesterID {
		return pkgerrors.ErrRecordNotFound
	}
	t.Done = done
	return nil
}

func (m *mockTaskRepo) ResetDone(_ context.Context, semesterID string) (int64, error) {
	var n int64
	for _, t := range m.tasks {
		if t.SemesterID == semesterID && t.Done {
			t.Done = false
			n++
		}
	}
	return n, nil
}

func (m *mockTaskRepo) Delete(_ context.Context, semesterID, id string) error {
	t, ok := m.tasks[id]
	if !ok || t.SemesterID != semesterID {
		return pkgerrors.ErrRecordNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockTaskRepo) DeleteByWeek(_ context.Context, semesterID string, weekNum int) (int64, error) {
	var n int64
	for id, t := range m.tasks {
		if t.SemesterID == semesterID && t.WeekNum == weekNum {
			delete(m.tasks, id)
			n++
		}
	}
	return n, nil
}

func (m *mockTaskRepo) DeleteBySemester(_ context.Context, semesterID string) error {
	for id, t := range m.tasks {
		if t.SemesterID == semesterID {
			delete(m.tasks, id)
		}
	}
	return nil
}

// ── Mock DeadlineRepository ──

type mockDeadlineRepo struct {
	deadlines map[string]*model.Deadline
	// failDelete 非 nil 时 DeleteBySemester 返回该错误，用于模拟级联中途失败
	failDelete error
}

func newMockDeadlineRepo() *mockDeadlineRepo {
	return &mockDeadlineRepo{deadlines: make(map[string]*model.Deadline)}
}

func (m *mockDeadlineRepo) Create(_ context.Context, d *model.Deadline) error {
	cp := *d
	m.deadlines[d.DeadlineID] = &cp
	return nil
}

func (m *mockDeadlineRepo) CreateBatch(ctx context.Context, deadlines []model.Deadline) error {
	for i := range deadlines {
		_ = m.Create(ctx, &deadlines[i])
	}
	return nil
}

func (m *mockDeadlineRepo) GetByID(_ context.Context, semesterID, id string) (*model.Deadline, error) {
	d, ok := m.deadlines[id]
	if !ok || d.SemesterID != semesterID {
		return nil, pkgerrors.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDeadlineRepo) ListBySemester(_ context.Context, semesterID string) ([]model.Deadline, error) {
	var result []model.Deadline
	for _, d := range m.deadlines {
		if d.SemesterID == semesterID {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].Order < result[j].Order
	})
	return result, nil
}

func (m *mockDeadlineRepo) Count(ctx context.Context, semesterID string) (int64, error) {
	all, _ := m.ListBySemester(ctx, semesterID)
	return int64(len(all)), nil
}

func (m *mockDeadlineRepo) Update(_ context.Context, d *model.Deadline) error {
	stored, ok := m.deadlines[d.DeadlineID]
	if !ok || stored.SemesterID != d.SemesterID {
		return pkgerrors.ErrRecordNotFound
	}
	cp := *d
	m.deadlines[d.DeadlineID] = &cp
	return nil
}

func (m *mockDeadlineRepo) Delete(_ context.Context, semesterID, id string) error {
	d, ok := m.deadlines[id]
	if !ok || d.SemesterID != semesterID {
		return pkgerrors.ErrRecordNotFound
	}
	delete(m.deadlines, id)
	return nil
}

func (m *mockDeadlineRepo) DeleteBySemester(_ context.Context, semesterID string) error {
	if m.failDelete != nil {
		return m.failDelete
	}
	for id, d := range m.deadlines {
		if d.SemesterID == semesterID {
			delete(m.deadlines, id)
		}
	}
	return nil
}

// ── Mock NoteRepository ──

type mockNoteRepo struct {
	notes map[string]*model.Note
	// failDelete 非 nil 时 DeleteByTasks 返回该错误
	failDelete error
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{notes: make(map[string]*model.Note)}
}

func (m *mockNoteRepo) Create(_ context.Context, n *model.Note) error {
	cp := *n
	m.notes[n.NoteID] = &cp
	return nil
}

func (m *mockNoteRepo) CreateBatch(ctx context.Context, notes []model.Note) error {
	for i := range notes {
		_ = m.Create(ctx, &notes[i])
	}
	return nil
}

func (m *mockNoteRepo) GetByID(_ context.Context, semesterID, id string) (*model.Note, error) {
	n, ok := m.notes[id]
	if !ok || n.SemesterID != semesterID {
		return nil, pkgerrors.ErrRecordNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *mockNoteRepo) ListBySemester(_ context.Context, semesterID string) ([]model.Note, error) {
	var result []model.Note
	for _, n := range m.notes {
		if n.SemesterID == semesterID {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockNoteRepo) ListByTask(ctx context.Context, semesterID, taskID string) ([]model.Note, error) {
	all, _ := m.ListBySemester(ctx, semesterID)
	var result []model.Note
	for _, n := range all {
		if n.TaskID == taskID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *mockNoteRepo) UpdateText(_ context.Context, semesterID, id, text string) error {
	n, ok := m.notes[id]
	if !ok || n.SemesterID != semesterID {
		return pkgerrors.ErrRecordNotFound
	}
	n.Text = text
	n.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockNoteRepo) Delete(_ context.Context, semesterID, id string) error {
	n, ok := m.notes[id]
	if !ok || n.SemesterID != semesterID {
		return pkgerrors.ErrRecordNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *mockNoteRepo) DeleteByTasks(_ context.Context, semesterID string, taskIDs []string) (int64, error) {
	if m.failDelete != nil {
		return 0, m.failDelete
	}
	ids := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		ids[id] = true
	}
	var n int64
	for id, note := range m.notes {
		if note.SemesterID == semesterID && ids[note.TaskID] {
			delete(m.notes, id)
			n++
		}
	}
	return n, nil
}

func (m *mockNoteRepo) DeleteBySemester(_ context.Context, semesterID string) error {
	for id, n := range m.notes {
		if n.SemesterID == semesterID {
			delete(m.notes, id)
		}
	}
	return nil
}

// ── Mock PreferenceRepository ──

type mockPreferenceRepo struct {
	prefs map[string]*model.OwnerPreference
}

func newMockPreferenceRepo() *mockPreferenceRepo {
	return &mockPreferenceRepo{prefs: make(map[string]*model.OwnerPreference)}
}

func (m *mockPreferenceRepo) Get(_ context.Context, ownerID string) (*model.OwnerPreference, error) {
	p, ok := m.prefs[ownerID]
	if !ok {
		return nil, pkgerrors.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPreferenceRepo) SetLastSemester(_ context.Context, ownerID string, semesterID *string) error {
	var last *string
	if semesterID != nil {
		id := *semesterID
		last = &id
	}
	m.prefs[ownerID] = &model.OwnerPreference{OwnerID: ownerID, LastSemesterID: last}
	return nil
}

// ── Mock RoadmapCache ──

type mockCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated []string
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (c *mockCache) GetRoadmap(_ context.Context, semesterID, today string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[semesterID+":"+today]
	return b, ok, nil
}

func (c *mockCache) SetRoadmap(_ context.Context, semesterID, today string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[semesterID+":"+today] = payload
	return nil
}

func (c *mockCache) InvalidateRoadmap(_ context.Context, semesterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, semesterID+":") {
			delete(c.entries, k)
		}
	}
	c.invalidated = append(c.invalidated, semesterID)
	return nil
}

// ── 聚合 ──

type mockRepos struct {
	semester   *mockSemesterRepo
	task       *mockTaskRepo
	deadline   *mockDeadlineRepo
	note       *mockNoteRepo
	preference *mockPreferenceRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		semester:   newMockSemesterRepo(),
		task:       newMockTaskRepo(),
		deadline:   newMockDeadlineRepo(),
		note:       newMockNoteRepo(),
		preference: newMockPreferenceRepo(),
	}
	repo := &repository.Repository{
		Semester:   m.semester,
		Task:       m.task,
		Deadline:   m.deadline,
		Note:       m.note,
		Preference: m.preference,
	}
	return repo, m
}
