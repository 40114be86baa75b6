package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/intel-radar/backend/internal/models"
)

func TestTopicsFor(t *testing.T) {
	require.Equal(t, []string{models.DefaultTopic}, TopicsFor(models.ModeCompetitor))
	require.Equal(t, []string{TopicNews}, TopicsFor(models.ModeNews))
	require.Equal(t, []string{models.DefaultTopic, TopicNews}, TopicsFor(models.ModeBlended))
	require.Nil(t, TopicsFor(models.ModeGreeting))
}

func TestRetrieveIsolatesFailedTopic(t *testing.T) {
	rc := &fakeRetrieval{
		search: func(_, topic string) ([]models.SearchResult, error) {
			if topic == models.DefaultTopic {
				return nil, errors.New("search down")
			}
			return []models.SearchResult{{URL: "https://n", Score: 0.8}}, nil
		},
	}

	results := NewRetriever(rc, 5, nil).Retrieve(context.Background(), "EV market", models.ModeBlended)

	require.Equal(t, []models.SearchResult{{URL: "https://n", Topic: TopicNews, Score: 0.8}}, results)
	require.Equal(t, []string{models.DefaultTopic, TopicNews}, rc.searches)
}
