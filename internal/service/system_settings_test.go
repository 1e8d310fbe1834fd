package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landedcost/internal/apperr"
	memdbrepository "landedcost/internal/repository/memdb"
)

type recordingSetter struct {
	values []int
}

func (r *recordingSetter) SetMaxConcurrent(n int) error {
	r.values = append(r.values, n)
	return nil
}

func newSettings(t *testing.T) (*SystemSettingsService, *recordingSetter) {
	t.Helper()
	store, err := memdbrepository.New()
	require.NoError(t, err)
	setter := &recordingSetter{}
	return &SystemSettingsService{Repo: store, Scheduler: setter}, setter
}

func TestEnsureDefaultSwitchesKeepsOperatorValues(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSettings(t)
	require.NoError(t, svc.SetEnabled(ctx, FeatureStarvationGuard, false))

	require.NoError(t, svc.EnsureDefaultSwitches(ctx))
	assert.False(t, svc.IsEnabled(ctx, FeatureStarvationGuard, true))
	assert.True(t, svc.IsEnabled(ctx, FeatureRecommendationArchive, false))
	assert.True(t, svc.IsEnabled(ctx, "feature.unknown", true))
}

func TestSetMaxConcurrentAppliesBeforeStoring(t *testing.T) {
	ctx := context.Background()
	svc, setter := newSettings(t)

	item, err := svc.Set(ctx, SettingMaxConcurrent, json.RawMessage(" 4 "), "worker pool size")
	require.NoError(t, err)
	assert.Equal(t, []int{4}, setter.values)
	assert.JSONEq(t, "4", string(item.Value))

	again, err := svc.Set(ctx, SettingMaxConcurrent, json.RawMessage("6"), "")
	require.NoError(t, err)
	assert.Equal(t, item.Key, again.Key)
	assert.Equal(t, "worker pool size", again.Description)
	assert.Equal(t, []int{4, 6}, setter.values)
}

func TestSetRejectsInvalidValues(t *testing.T) {
	ctx := context.Background()
	svc, setter := newSettings(t)
	cases := []struct {
		key   string
		value string
	}{
		{SettingMaxConcurrent, "0"},
		{SettingMaxConcurrent, `"two"`},
		{FeatureStarvationGuard, `"yes"`},
		{"anything", `{broken`},
		{" ", "true"},
	}
	for _, tc := range cases {
		_, err := svc.Set(ctx, tc.key, json.RawMessage(tc.value), "")
		require.Error(t, err, "%s=%s", tc.key, tc.value)
		assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
	}
	assert.Empty(t, setter.values)
}

func TestApplyRuntimeUsesStoredConcurrency(t *testing.T) {
	ctx := context.Background()
	svc, setter := newSettings(t)
	require.NoError(t, svc.ApplyRuntime(ctx))
	assert.Empty(t, setter.values)

	_, err := svc.Set(ctx, SettingMaxConcurrent, json.RawMessage("3"), "")
	require.NoError(t, err)
	setter.values = nil
	require.NoError(t, svc.ApplyRuntime(ctx))
	assert.Equal(t, []int{3}, setter.values)
}
