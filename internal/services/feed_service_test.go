package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
)

func TestFeedService_GetFeedPagination(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	author := e.register(t, "alice", models.RoleStudent)

	for i := 0; i < 45; i++ {
		require.NoError(t, e.repo.Posts().Create(ctx, &models.Post{UserID: author.UserID, Title: "post"}))
	}

	first, err := e.services.Feed.GetFeed(ctx, nil, 0)
	require.NoError(t, err)
	second, err := e.services.Feed.GetFeed(ctx, nil, 20)
	require.NoError(t, err)
	third, err := e.services.Feed.GetFeed(ctx, nil, 40)
	require.NoError(t, err)

	assert.Len(t, first, models.FeedPageSize)
	assert.Len(t, second, models.FeedPageSize)
	assert.Len(t, third, 5)

	all := append(append(append([]models.FeedItem{}, first...), second...), third...)
	seen := map[uint]bool{}
	for i, item := range all {
		assert.False(t, seen[item.Post.ID], "post %d appears twice", item.Post.ID)
		seen[item.Post.ID] = true
		if i > 0 {
			assert.True(t, all[i-1].Post.CreatedAt.After(item.Post.CreatedAt), "feed not ordered at %d", i)
		}
	}
	assert.Len(t, seen, 45)

	// page boundary has no gap: the last of page one directly precedes the first of page two
	assert.Equal(t, first[19].Post.ID-1, second[0].Post.ID)
}

func TestFeedService_GetFeedComposesItems(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice", models.RoleInnovator)
	bob := e.register(t, "bob", models.RoleStudent)

	result, err := e.services.Posts.CreatePost(ctx, alice, models.CreatePostRequest{
		Title: "Selling a desk",
		Price: "19.99",
	}, []Attachment{imageUpload("a.png", pngHeader), imageUpload("b.jpg", jpegHeader)})
	require.NoError(t, err)

	_, err = e.services.Engagement.ToggleLike(ctx, bob, result.PostID)
	require.NoError(t, err)
	_, err = e.services.Engagement.AddComment(ctx, alice, models.AddCommentRequest{PostID: result.PostID, Text: "still available"})
	require.NoError(t, err)

	feed, err := e.services.Feed.GetFeed(ctx, bob, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)

	item := feed[0]
	assert.Equal(t, "Selling a desk", item.Post.Title)
	require.NotNil(t, item.Post.Price)
	assert.Equal(t, "19.99", *item.Post.Price)
	assert.Equal(t, "alice", item.Post.Author.Username)
	assert.Equal(t, models.RoleInnovator, item.Post.Author.Role)
	assert.Equal(t, int64(1), item.LikeCount)
	assert.Equal(t, int64(1), item.CommentCount)
	assert.True(t, item.ViewerHasLiked)

	require.Len(t, item.Media, 2)
	assert.Equal(t, "image/png", item.Media[0].MimeType)
	assert.Equal(t, "image/jpeg", item.Media[1].MimeType)
	assert.Equal(t, result.Attachments[0].URL, item.Media[0].URL)

	anon, err := e.services.Feed.GetFeed(ctx, nil, 0)
	require.NoError(t, err)
	assert.False(t, anon[0].ViewerHasLiked)
}

func TestFeedService_GetFeedEmpty(t *testing.T) {
	e := newTestEnv(t)

	feed, err := e.services.Feed.GetFeed(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

func TestFeedService_GetFeedErrors(t *testing.T) {
	t.Run("negative offset", func(t *testing.T) {
		e := newTestEnv(t)
		_, err := e.services.Feed.GetFeed(context.Background(), nil, -1)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing author", func(t *testing.T) {
		e := newTestEnv(t)
		ctx := context.Background()
		require.NoError(t, e.repo.Posts().Create(ctx, &models.Post{UserID: 999, Title: "orphan"}))

		_, err := e.services.Feed.GetFeed(ctx, nil, 0)
		assert.ErrorIs(t, err, ErrDataIntegrity)
	})

	t.Run("storage outage", func(t *testing.T) {
		e := newTestEnv(t)
		e.repo.s.fail = errors.New("connection refused")

		_, err := e.services.Feed.GetFeed(context.Background(), nil, 0)
		assert.ErrorIs(t, err, ErrStorageUnavailable)
	})
}

func TestFeedService_GetPost(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice", models.RoleStudent)
	bob := e.register(t, "bob", models.RoleStudent)

	result, err := e.services.Posts.CreatePost(ctx, alice, models.CreatePostRequest{Title: "hello"}, nil)
	require.NoError(t, err)

	for _, c := range []struct {
		user *models.Identity
		text string
	}{{bob, "first"}, {alice, "second"}, {bob, "third"}} {
		_, err := e.services.Engagement.AddComment(ctx, c.user, models.AddCommentRequest{PostID: result.PostID, Text: c.text})
		require.NoError(t, err)
	}

	detail, err := e.services.Feed.GetPost(ctx, bob, result.PostID)
	require.NoError(t, err)
	assert.Equal(t, result.PostID, detail.Post.ID)
	assert.Equal(t, int64(3), detail.CommentCount)
	require.Len(t, detail.Comments, 3)
	assert.Equal(t, "first", detail.Comments[0].Text)
	assert.Equal(t, "bob", detail.Comments[0].Author.Username)
	assert.Equal(t, "third", detail.Comments[2].Text)
	assert.NotNil(t, detail.Media)

	_, err = e.services.Feed.GetPost(ctx, nil, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}
