package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	ops    []string
	stored []int
}

func (o *recordingObserver) ObserveUserOperation(op, outcome string) {
	o.ops = append(o.ops, op+":"+outcome)
}

func (o *recordingObserver) SetUsersStored(n int) {
	o.stored = append(o.stored, n)
}

type failingRepo struct {
	*Store
	err error
}

func (f failingRepo) ListUsers(ctx context.Context, search string) ([]User, error) {
	return nil, f.err
}

func TestServiceCRUDFlow(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	svc := NewService(NewStore(), obs)

	created, err := svc.CreateUser(ctx, UserInput{Name: "Test", Email: "test@test.com", Phone: "123"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	list, err := svc.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []User{{ID: 1, Name: "Test", Email: "test@test.com", Phone: "123"}}, list)

	updated, err := svc.UpdateUser(ctx, 1, UserInput{Name: "New", Email: "new@test.com", Phone: "222"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ID)
	assert.Equal(t, "New", updated.Name)

	require.NoError(t, svc.DeleteUser(ctx, 1))
	_, err = svc.GetUser(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"create:ok", "list:ok", "update:ok", "delete:ok", "get:not_found"}, obs.ops)
	assert.Equal(t, []int{1, 0}, obs.stored)
}

func TestServiceCreatesUniqueIDs(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewStore(), nil)

	seen := map[int64]bool{}
	for i := 0; i < 20; i++ {
		u, err := svc.CreateUser(ctx, UserInput{Name: "dup"})
		require.NoError(t, err)
		assert.False(t, seen[u.ID])
		seen[u.ID] = true
	}
	list, err := svc.ListUsers(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 20)
	for i, u := range list {
		assert.Equal(t, int64(i+1), u.ID)
	}
}

func TestServiceReportsRepositoryErrors(t *testing.T) {
	boom := errors.New("boom")
	obs := &recordingObserver{}
	svc := NewService(failingRepo{Store: NewStore(), err: boom}, obs)

	_, err := svc.ListUsers(context.Background(), "")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"list:error"}, obs.ops)
}

func TestServiceSeedAndReset(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	svc := NewService(NewStore(), obs)

	require.NoError(t, svc.Seed(ctx, ParseSeed("Alice|alice@test.com|123; Bob|bob@test.com|456")))
	list, err := svc.ListUsers(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, []User{{ID: 1, Name: "Alice", Email: "alice@test.com", Phone: "123"}}, list)

	require.NoError(t, svc.Reset(ctx))
	list, err = svc.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, obs.stored[len(obs.stored)-1])
}

func TestParseSeed(t *testing.T) {
	assert.Nil(t, ParseSeed(""))
	assert.Nil(t, ParseSeed(" ; ;"))
	assert.Equal(t, []UserInput{
		{Name: "Alice", Email: "alice@test.com", Phone: "123"},
		{Name: "Bob"},
		{Name: "Carol", Email: "c@test.com", Phone: "7|8"},
	}, ParseSeed("Alice|alice@test.com|123;Bob;Carol|c@test.com|7|8"))
}
