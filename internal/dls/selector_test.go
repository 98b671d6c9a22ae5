package dls

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestContextSelectorDefaults(t *testing.T) {
	s := NewContextSelector()
	require.Equal(t, Automated, s.Current())

	news := s.CriteriaFor(News)
	require.Equal(t, High, news.MaxPriority)
	require.Equal(t, 30*time.Minute, news.MaxAge)

	emergency := s.CriteriaFor(ContextEmergency)
	require.True(t, emergency.AllowRepeats)
	require.Equal(t, 10, emergency.MaxRepeatCount)
	require.Equal(t, 30*time.Second, emergency.MinRepeatInterval)
}

func TestContextSelectorFallsBackToDefaultCriteria(t *testing.T) {
	s := NewContextSelector()
	criteria := s.CriteriaFor(Talk)
	require.Equal(t, Emergency, criteria.MinPriority)
	require.Equal(t, Background, criteria.MaxPriority)
}

func TestContextSelectorSetContext(t *testing.T) {
	s := NewContextSelector()
	s.SetContext(News)
	require.Equal(t, News, s.Current())
}

func TestContextSelectorOverride(t *testing.T) {
	s := NewContextSelector()
	custom := SelectionCriteria{MinPriority: Emergency, MaxPriority: Normal}
	s.SetDefault(Talk, custom)
	require.Equal(t, Normal, s.CriteriaFor(Talk).MaxPriority)
}

func TestContextSelectorReturnsCopy(t *testing.T) {
	s := NewContextSelector()
	c := s.CriteriaFor(News)
	c.MaxAge = time.Hour
	require.NotEqual(t, time.Hour, s.CriteriaFor(News).MaxAge)
}
