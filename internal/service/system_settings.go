package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"landedcost/internal/apperr"
	"landedcost/internal/models"
	"landedcost/internal/repository"
)

const (
	FeatureStarvationGuard       = "feature.starvation_guard"
	FeatureRecommendationArchive = "feature.recommendation_archive"

	SettingMaxConcurrent = "scheduler.max_concurrent"
)

func DefaultFeatureSwitches() map[string]bool {
	return map[string]bool{
		FeatureStarvationGuard:       true,
		FeatureRecommendationArchive: true,
	}
}

// ConcurrencySetter is the part of the scheduler that runtime settings drive.
type ConcurrencySetter interface {
	SetMaxConcurrent(n int) error
}

type SystemSettingsService struct {
	Repo      repository.SettingsRepository
	Scheduler ConcurrencySetter
	Logger    *zap.Logger
}

func (s *SystemSettingsService) EnsureDefaultSwitches(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	now := time.Now().UTC()
	for key, enabled := range DefaultFeatureSwitches() {
		existing, err := s.Repo.GetSystemSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		raw, _ := json.Marshal(enabled)
		item := &models.SystemSetting{
			Key:         key,
			Value:       datatypes.JSON(raw),
			Description: "feature switch",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Repo.UpsertSystemSetting(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SystemSettingsService) IsEnabled(ctx context.Context, key string, fallback bool) bool {
	if s == nil || s.Repo == nil {
		return fallback
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	item, err := s.Repo.GetSystemSettingByKey(ctx, key)
	if err != nil || item == nil || len(item.Value) == 0 {
		return fallback
	}
	var enabled bool
	if err := json.Unmarshal(item.Value, &enabled); err != nil {
		return fallback
	}
	return enabled
}

func (s *SystemSettingsService) SetEnabled(ctx context.Context, key string, enabled bool) error {
	raw, _ := json.Marshal(enabled)
	_, err := s.Set(ctx, key, raw, "feature switch")
	return err
}

// Set validates and stores one setting. scheduler.max_concurrent must be a positive integer and is applied to
// the scheduler before it is stored; feature.* keys must be booleans.
func (s *SystemSettingsService) Set(ctx context.Context, key string, value json.RawMessage, description string) (*models.SystemSetting, error) {
	if s == nil || s.Repo == nil {
		return nil, apperr.Invalid("settings", "settings repo unavailable")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperr.Invalid("key", "key is required")
	}
	value = bytes.TrimSpace(value)
	if len(value) == 0 || !json.Valid(value) {
		return nil, apperr.Invalid("value", "value must be valid JSON")
	}
	switch {
	case key == SettingMaxConcurrent:
		var n int
		if err := json.Unmarshal(value, &n); err != nil || n < 1 {
			return nil, apperr.Invalid("value", "%s must be a positive integer", key)
		}
		if s.Scheduler != nil {
			if err := s.Scheduler.SetMaxConcurrent(n); err != nil {
				return nil, err
			}
		}
	case strings.HasPrefix(key, "feature."):
		var b bool
		if err := json.Unmarshal(value, &b); err != nil {
			return nil, apperr.Invalid("value", "%s must be true or false", key)
		}
	}

	item, err := s.Repo.GetSystemSettingByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if item == nil {
		item = &models.SystemSetting{Key: key, CreatedAt: now}
	}
	item.Value = datatypes.JSON(value)
	if description != "" {
		item.Description = description
	}
	item.UpdatedAt = now
	if err := s.Repo.UpsertSystemSetting(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ApplyRuntime pushes stored runtime settings into the scheduler. A missing or broken value keeps the
// configured default.
func (s *SystemSettingsService) ApplyRuntime(ctx context.Context) error {
	if s == nil || s.Repo == nil || s.Scheduler == nil {
		return nil
	}
	item, err := s.Repo.GetSystemSettingByKey(ctx, SettingMaxConcurrent)
	if err != nil || item == nil {
		return err
	}
	var n int
	if err := json.Unmarshal(item.Value, &n); err != nil || n < 1 {
		if s.Logger != nil {
			s.Logger.Warn("ignoring invalid stored setting", zap.String("key", SettingMaxConcurrent), zap.ByteString("value", item.Value))
		}
		return nil
	}
	return s.Scheduler.SetMaxConcurrent(n)
}
