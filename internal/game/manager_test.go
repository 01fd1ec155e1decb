package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/talgya/daily-decree/internal/newspaper"
)

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	gen := NewMockGenerator(t)
	store := newMemStore()
	m := NewManager(Deps{Generator: gen}, store)

	gen.On("Generate", mock.Anything, mock.Anything).Return(result(issueText(t, "Opening Day")), nil).Once()
	s, err := m.NewGame(ctx, newspaper.UK, "", nil)
	require.NoError(t, err)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	// The first issue is saved automatically.
	saves, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "UK Campaign", saves[0].Name)
	assert.Equal(t, "Margaret Hale", saves[0].LeaderName)
	assert.Equal(t, 0, saves[0].TurnCount)

	gen.On("Generate", mock.Anything, mock.Anything).Return(result(issueText(t, "Budget Passed")), nil).Once()
	_, err = s.SubmitAction(ctx, "pass the budget")
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx, s))

	require.NoError(t, m.Exit(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.SubmitAction(ctx, "too late")
	assert.ErrorIs(t, err, ErrSessionClosed)

	loaded, err := m.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Turn())
	assert.Equal(t, StatePlaying, loaded.State())
	assert.Equal(t, "Budget Passed", loaded.View().Issue.MainStory.Headline)
	assert.Equal(t, []newspaper.TurnRecord{{TurnNumber: 1, PlayerAction: "pass the budget", ResultSummary: "Budget Passed"}}, loaded.View().History)

	require.NoError(t, m.Delete(ctx, s.ID))
	saves, err = m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestManagerRestart(t *testing.T) {
	ctx := context.Background()
	gen := NewMockGenerator(t)
	m := NewManager(Deps{Generator: gen}, nil)

	gen.On("Generate", mock.Anything, mock.Anything).Return(result(issueText(t, "Day One")), nil).Twice()
	s, err := m.NewGame(ctx, newspaper.Germany, "", nil)
	require.NoError(t, err)

	fresh, err := m.Restart(ctx, s.ID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, fresh.ID)
	assert.Equal(t, newspaper.Germany, fresh.Country)
	assert.Equal(t, 1, m.Count())

	_, err = s.LookupCountry(ctx, "France")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestManagerExportImport(t *testing.T) {
	ctx := context.Background()
	gen := NewMockGenerator(t)
	src := NewManager(Deps{Generator: gen}, newMemStore())

	gen.On("Generate", mock.Anything, mock.Anything).Return(result(issueText(t, "Exported", withDiplomacy(france))), nil).Once()
	s, err := src.NewGame(ctx, newspaper.USA, "", nil)
	require.NoError(t, err)

	data, name, err := src.Export(s)
	require.NoError(t, err)
	assert.Equal(t, "daily_decree_usa_"+s.ID[:6]+".json", name)

	dst := NewManager(Deps{Generator: gen}, newMemStore())
	meta, err := dst.Import(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, s.ID, meta.ID)

	loaded, err := dst.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.View().Issue, loaded.View().Issue)

	_, err = dst.Import(ctx, []byte(`{"metadata": {}}`))
	assert.ErrorIs(t, err, ErrSaveCorrupt)
}
