package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"campus-billing/internal/clients"
)

// ExportService lists statement exports an actor has started, newest first.
type ExportService struct {
	redis *clients.RedisClient
}

func NewExportService(redis *clients.RedisClient) *ExportService {
	return &ExportService{
		redis: redis,
	}
}

func (s *ExportService) GetExports(ctx context.Context, actorID string) ([]interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, statementSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get statement keys: %w", err)
	}

	var exports []interface{}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue
		}

		var status ExportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}

		if status.ActorID == actorID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	for _, status := range statuses {
		exports = append(exports, statusMap(status))
	}

	return exports, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string, actorID string) (interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, exportID)
	if err != nil {
		return nil, errors.New("statement not found")
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse statement status: %w", err)
	}

	if status.ActorID != actorID {
		return nil, errors.New("statement not found")
	}

	return statusMap(status), nil
}

func statusMap(status ExportStatus) map[string]interface{} {
	return map[string]interface{}{
		"key":        status.Key,
		"type":       status.Type,
		"actor_id":   status.ActorID,
		"student_id": status.Student,
		"progress":   status.Progress,
		"file_url":   status.FileURL,
		"created_at": humanizeAgo(status.Created),
	}
}

func humanizeAgo(t time.Time) string {
	now := time.Now()
	if t.After(now) {
		return "just now"
	}

	diff := now.Sub(t)
	minutes := int(diff.Minutes())
	if minutes < 1 {
		return "just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d minute%s ago", minutes, plural(minutes))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	}
	return t.Format("2006-01-02 15:04")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
