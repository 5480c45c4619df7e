package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupModel(t *testing.T) {
	t.Run("PRO は解像度指定とユーザーキーに対応する", func(t *testing.T) {
		spec, err := LookupModel(ModelPro)
		require.NoError(t, err)
		assert.True(t, spec.SupportsExplicitResolution)
		assert.True(t, spec.RequiresUserKey)
	})

	t.Run("FLASH は解像度を自動選択する", func(t *testing.T) {
		spec, err := LookupModel(ModelFlash)
		require.NoError(t, err)
		assert.False(t, spec.SupportsExplicitResolution)
		assert.False(t, spec.RequiresUserKey)
	})

	t.Run("未知のモデルはエラー", func(t *testing.T) {
		_, err := LookupModel("imagen-3.0")
		assert.Error(t, err)
	})
}

func TestParseHelpers(t *testing.T) {
	m, err := ParseModel("pro")
	require.NoError(t, err)
	assert.Equal(t, ModelPro, m)

	m, err = ParseModel("gemini-2.5-flash-image")
	require.NoError(t, err)
	assert.Equal(t, ModelFlash, m)

	_, err = ParseAspectRatio("2:1")
	assert.Error(t, err)

	r, err := ParseResolution("4k")
	require.NoError(t, err)
	assert.Equal(t, Resolution4K, r)

	s, err := ParseStyle("cyberpunk / neon")
	require.NoError(t, err)
	assert.Equal(t, StyleCyberpunk, s)
}

func TestBatchFailure_Error(t *testing.T) {
	t.Run("1回目の試行のメッセージを代表として返す", func(t *testing.T) {
		bf := &BatchFailure{Failures: []*AttemptFailure{
			{Attempt: 1, Err: ErrNoImageData},
			{Attempt: 2, Err: ErrSafetyBlocked},
		}}
		assert.Equal(t, "no image data in response", bf.Error())
		assert.True(t, errors.Is(bf, ErrNoImageData))
	})

	t.Run("メッセージが空ならフォールバック", func(t *testing.T) {
		bf := &BatchFailure{Failures: []*AttemptFailure{{Attempt: 1, Err: errors.New("")}}}
		assert.Equal(t, "all generation attempts failed", bf.Error())
	})
}

func TestIsKeyNotFound(t *testing.T) {
	assert.True(t, IsKeyNotFound(fmt.Errorf("rpc: %w", errors.New("Error 404, Requested entity was not found."))))
	assert.False(t, IsKeyNotFound(ErrSafetyBlocked))
	assert.False(t, IsKeyNotFound(nil))
}

func TestClassifyFailure(t *testing.T) {
	assert.Equal(t, FailureNoCandidates, ClassifyFailure(ErrNoCandidates))
	assert.Equal(t, FailureSafetyBlocked, ClassifyFailure(fmt.Errorf("attempt 2: %w", ErrSafetyBlocked)))
	assert.Equal(t, FailureNoImageData, ClassifyFailure(ErrNoImageData))
	assert.Equal(t, FailureTransport, ClassifyFailure(errors.New("503 service unavailable")))
}
