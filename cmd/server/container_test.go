package main

import (
	"context"
	"testing"

	"github.com/fadilmartias/fasthire/internal/config"
	"github.com/fadilmartias/fasthire/internal/queue"
	"github.com/fadilmartias/fasthire/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewQueueStore(t *testing.T) {
	store, err := newQueueStore(&config.QueueConfig{Driver: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &queue.MemoryStore{}, store)

	store, err = newQueueStore(&config.QueueConfig{Driver: "postgres"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &queue.GormStore{}, store)

	_, err = newQueueStore(&config.QueueConfig{Driver: "redis"}, nil)
	assert.ErrorContains(t, err, `unknown queue driver "redis"`)
}

func TestNewJDParser(t *testing.T) {
	parser, err := newJDParser(context.Background(), &config.ScorerConfig{ParserDriver: "http", BaseURL: "http://scorer"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &service.JDParserService{}, parser)

	_, err = newJDParser(context.Background(), &config.ScorerConfig{ParserDriver: "openai"}, zap.NewNop())
	assert.Error(t, err)
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "worker", "sync-email-flags"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, root.PersistentFlags().Lookup("json"))
}
