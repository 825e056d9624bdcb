package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/planner"
)

// RoadmapService 路线图业务接口
type RoadmapService interface {
	// Get 计算泳道布局；没有可定位事件时返回 Empty=true
	Get(ctx context.Context, ownerID, semesterID string) (*dto.RoadmapResponse, error)
}

type roadmapService struct {
	*base
	layout planner.LayoutOptions
	ttl    time.Duration
}

// ────────────────────── Get ──────────────────────
//
// 布局只依赖学期数据与"今天"，按 (学期, 日期) 缓存；任何写操作都会失效该学期的缓存。
// 缓存读写失败时直接重新计算。

func (s *roadmapService) Get(ctx context.Context, ownerID, semesterID string) (*dto.RoadmapResponse, error) {
	sem, err := s.semester(ctx, s.repo, ownerID, semesterID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := planner.FormatISO(now)
	if s.cache != nil {
		payload, ok, err := s.cache.GetRoadmap(ctx, semesterID, today)
		if err != nil {
			s.logger.Warn("读取路线图缓存失败", zap.String("semester_id", semesterID), zap.Error(err))
		} else if ok {
			var cached dto.RoadmapResponse
			if err := json.Unmarshal(payload, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	tasks, err := s.repo.Task.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("查询任务失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	deadlines, err := s.repo.Deadline.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("查询截止日期失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}

	roadmap, ok := planner.BuildRoadmap(sem.Weeks, tasks, deadlines, now, s.layout)
	resp := &dto.RoadmapResponse{Empty: !ok}
	if ok {
		resp.Roadmap = roadmap
	}

	if s.cache != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := s.cache.SetRoadmap(ctx, semesterID, today, payload, s.ttl); err != nil {
				s.logger.Warn("写入路线图缓存失败", zap.String("semester_id", semesterID), zap.Error(err))
			}
		}
	}
	return resp, nil
}
