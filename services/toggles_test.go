package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumekit/plume/models"
)

func TestSetReactionIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")
	reader := makeUser(t, db, "bob")

	post, err := svc.Create(author.ID, "T", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	require.NoError(t, svc.SetReaction(reader.ID, post.ID, models.ReactionLike))
	require.NoError(t, svc.SetReaction(reader.ID, post.ID, models.ReactionLike))

	counts, err := svc.Counts(post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Likes)
	assert.Zero(t, counts.Dislikes)
}

func TestSetReactionSwitchesType(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")
	reader := makeUser(t, db, "bob")

	post, err := svc.Create(author.ID, "T", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	require.NoError(t, svc.SetReaction(reader.ID, post.ID, models.ReactionLike))
	require.NoError(t, svc.SetReaction(reader.ID, post.ID, models.ReactionDislike))

	counts, err := svc.Counts(post.ID)
	require.NoError(t, err)
	assert.Zero(t, counts.Likes)
	assert.Equal(t, int64(1), counts.Dislikes)

	reaction, err := svc.UserReaction(reader.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionDislike, reaction)
}

func TestSetReactionRejectsUnknownType(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	post, err := svc.Create(author.ID, "T", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	err = svc.SetReaction(author.ID, post.ID, "love")
	assert.ErrorIs(t, err, ErrInvalidReaction)
}

func TestRemoveReactionIsNoOpWhenAbsent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")
	reader := makeUser(t, db, "bob")

	post, err := svc.Create(author.ID, "T", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveReaction(reader.ID, post.ID))

	require.NoError(t, svc.SetReaction(reader.ID, post.ID, models.ReactionLike))
	require.NoError(t, svc.RemoveReaction(reader.ID, post.ID))

	reaction, err := svc.UserReaction(reader.ID, post.ID)
	require.NoError(t, err)
	assert.Empty(t, reaction)
}

func TestToggleFavoriteRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")
	reader := makeUser(t, db, "bob")

	post, err := svc.Create(author.ID, "T", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	saved, err := svc.ToggleFavorite(reader.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	is, err := svc.IsFavorited(reader.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, is)

	saved, err = svc.ToggleFavorite(reader.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	is, err = svc.IsFavorited(reader.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, is)
}

func TestListFavoritesNewestSavedFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")
	reader := makeUser(t, db, "bob")

	first, err := svc.Create(author.ID, "first", "body", models.StatusPublished, nil)
	require.NoError(t, err)
	second, err := svc.Create(author.ID, "second", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	_, err = svc.ToggleFavorite(reader.ID, first.ID)
	require.NoError(t, err)
	_, err = svc.ToggleFavorite(reader.ID, second.ID)
	require.NoError(t, err)

	posts, err := svc.ListFavorites(reader.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
}

func TestSubscriptionToggleRoundTrip(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	alice := makeUser(t, db, "alice")
	bob := makeUser(t, db, "bob")

	following, err := subs.Toggle(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	is, err := subs.IsSubscribed(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, is)

	// Follow edges are directed.
	is, err = subs.IsSubscribed(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, is)

	following, err = subs.Toggle(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestSubscriptionRejectsSelfFollow(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	alice := makeUser(t, db, "alice")

	_, err := subs.Toggle(alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfSubscription)
}

func TestListFollowedNewestFirst(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	viewer := makeUser(t, db, "viewer")
	alice := makeUser(t, db, "alice")
	bob := makeUser(t, db, "bob")

	_, err := subs.Toggle(viewer.ID, alice.ID)
	require.NoError(t, err)
	_, err = subs.Toggle(viewer.ID, bob.ID)
	require.NoError(t, err)

	users, err := subs.ListFollowed(viewer.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)
	names := []string{users[0].Username, users[1].Username}
	assert.Contains(t, names, "alice")
	assert.Contains(t, names, "bob")
}
