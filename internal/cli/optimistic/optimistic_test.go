package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameofbones/gameofbones/internal/cli/client"
)

func TestDo(t *testing.T) {
	count := 1
	err := Do(context.Background(),
		func() { count++ },
		func() { count-- },
		func(context.Context) error { return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	boom := errors.New("boom")
	var seen int
	err = Do(context.Background(),
		func() { count++ },
		func() { count-- },
		func(context.Context) error {
			seen = count
			return boom
		},
	)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, seen, "the change is visible while the request runs")
	assert.Equal(t, 2, count)
}

type likeAPI struct {
	err   error
	calls []string
}

func (l *likeAPI) LikePost(ctx context.Context, id int64) (*client.LikeStatus, error) {
	l.calls = append(l.calls, "like")
	if l.err != nil {
		return nil, l.err
	}
	return &client.LikeStatus{LikesCount: 11, LikedByMe: true}, nil
}

func (l *likeAPI) UnlikePost(ctx context.Context, id int64) (*client.LikeStatus, error) {
	l.calls = append(l.calls, "unlike")
	if l.err != nil {
		return nil, l.err
	}
	return &client.LikeStatus{LikesCount: 9, LikedByMe: false}, nil
}

func TestToggleLike_Success(t *testing.T) {
	cell := NewCell(client.Post{ID: 3, LikesCount: 7})
	api := &likeAPI{}

	var shown []int
	cell.OnChange(func(p client.Post) { shown = append(shown, p.LikesCount) })

	require.NoError(t, ToggleLike(context.Background(), cell, api))

	got := cell.Get()
	assert.True(t, got.LikedByMe)
	assert.Equal(t, 11, got.LikesCount, "the backend count wins")
	assert.Equal(t, []int{8, 11}, shown)
	assert.Equal(t, []string{"like"}, api.calls)
}

func TestToggleLike_FailureRestoresPost(t *testing.T) {
	before := client.Post{ID: 3, Title: "Night's Watch", LikesCount: 4, LikedByMe: true}
	cell := NewCell(before)
	api := &likeAPI{err: &client.APIError{Status: 500, Message: "down"}}

	var shown []client.Post
	cell.OnChange(func(p client.Post) { shown = append(shown, p) })

	err := ToggleLike(context.Background(), cell, api)
	require.Error(t, err)

	var apiErr *client.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, before, cell.Get())
	require.Len(t, shown, 2)
	assert.Equal(t, 3, shown[0].LikesCount)
	assert.False(t, shown[0].LikedByMe)
	assert.Equal(t, []string{"unlike"}, api.calls)
}
