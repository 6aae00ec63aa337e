package trial_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/raidsim/internal/trial"
)

func contentDir(parts ...string) string {
	return filepath.Join(append([]string{"..", "..", "content"}, parts...)...)
}

func shippedPaths() trial.ContentPaths {
	return trial.ContentPaths{
		Items:     contentDir("items.yaml"),
		Builds:    contentDir("builds.yaml"),
		Buffs:     contentDir("buffs.yaml"),
		Bosses:    contentDir("bosses"),
		Scenarios: contentDir("scenarios.yaml"),
		Scripts:   contentDir("scripts"),
	}
}

func loadShipped(t testing.TB) *trial.Content {
	t.Helper()
	c, err := trial.LoadContent(shippedPaths(), 0, zap.NewNop())
	require.NoError(t, err)
	return c
}

func compileShipped(t testing.TB, c *trial.Content, id string) *trial.Plan {
	t.Helper()
	s, ok := c.Scenarios[id]
	require.True(t, ok, "scenario %q", id)
	p, err := trial.Compile(s, c)
	require.NoError(t, err)
	return p
}
