package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumekit/plume/models"
)

func TestCreatePublishedPostStampsPublishedAt(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	draft, err := svc.Create(author.ID, "Draft", "body", models.StatusDraft, nil)
	require.NoError(t, err)
	assert.Nil(t, draft.PublishedAt)

	published, err := svc.Create(author.ID, "Live", "body", models.StatusPublished, nil)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
}

func TestPublishedAtStampedOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	post, err := svc.Create(author.ID, "T", "body", models.StatusPublished, nil)
	require.NoError(t, err)
	first := *post.PublishedAt

	draft := models.StatusDraft
	post, err = svc.Update(post, UpdatePostInput{Status: &draft})
	require.NoError(t, err)

	republished := models.StatusPublished
	post, err = svc.Update(post, UpdatePostInput{Status: &republished})
	require.NoError(t, err)
	assert.Equal(t, first, *post.PublishedAt, "republishing must not move the original timestamp")
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	_, err := svc.Create(author.ID, "T", "body", "pending", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestExcerptTruncation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	long := strings.Repeat("é", 300)
	post, err := svc.Create(author.ID, "T", long, models.StatusPublished, nil)
	require.NoError(t, err)
	assert.Equal(t, excerptRunes+1, len([]rune(post.Excerpt)))
	assert.True(t, strings.HasSuffix(post.Excerpt, "…"))

	short, err := svc.Create(author.ID, "T2", "  tiny body  ", models.StatusPublished, nil)
	require.NoError(t, err)
	assert.Equal(t, "tiny body", short.Excerpt)
}

func TestListPagination(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	for i := 0; i < 5; i++ {
		_, err := svc.Create(author.ID, "Post", "body", models.StatusPublished, nil)
		require.NoError(t, err)
	}

	posts, total, err := svc.List(ListFilters{Status: models.StatusPublished, Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, posts, 2)

	posts, total, err = svc.List(ListFilters{Status: models.StatusPublished, Page: 3, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, posts, 1)

	// A page past the end still reports the true total.
	posts, total, err = svc.List(ListFilters{Status: models.StatusPublished, Page: 9, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, posts)
}

func TestListClampsPageBounds(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	for i := 0; i < 3; i++ {
		_, err := svc.Create(author.ID, "Post", "body", models.StatusPublished, nil)
		require.NoError(t, err)
	}

	// Page and per-page below their minimums fall back to 1.
	posts, total, err := svc.List(ListFilters{Status: models.StatusPublished, Page: 0, PerPage: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, posts, 1)
}

func TestListOrdersNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	first, err := svc.Create(author.ID, "First", "body", models.StatusPublished, nil)
	require.NoError(t, err)
	second, err := svc.Create(author.ID, "Second", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	posts, _, err := svc.List(ListFilters{Status: models.StatusPublished, Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
}

func TestListSearchMatchesTitleAndContent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	hello, err := svc.Create(author.ID, "hello world", "greeting", models.StatusPublished, nil)
	require.NoError(t, err)
	goodbye, err := svc.Create(author.ID, "goodbye world", "farewell", models.StatusPublished, nil)
	require.NoError(t, err)
	_, err = svc.Create(author.ID, "unrelated", "nothing here", models.StatusPublished, nil)
	require.NoError(t, err)

	posts, total, err := svc.List(ListFilters{Query: "world", Status: models.StatusPublished, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, posts, 2)
	assert.Equal(t, goodbye.ID, posts[0].ID)
	assert.Equal(t, hello.ID, posts[1].ID)

	posts, total, err = svc.List(ListFilters{Query: "farewell", Status: models.StatusPublished, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, goodbye.ID, posts[0].ID)
}

func TestListSearchExcludesDrafts(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	_, err := svc.Create(author.ID, "secret world", "draft body", models.StatusDraft, nil)
	require.NoError(t, err)
	pub, err := svc.Create(author.ID, "public world", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	posts, total, err := svc.List(ListFilters{Query: "world", Status: models.StatusPublished, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, pub.ID, posts[0].ID)
}

func TestSearchCacheInvalidatedByMutations(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	_, err := svc.Create(author.ID, "cache world", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	filters := ListFilters{Query: "world", Status: models.StatusPublished, Page: 1, PerPage: 10}
	posts, _, err := svc.List(filters)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	// The new post must be visible immediately, not after TTL expiry.
	_, err = svc.Create(author.ID, "another world", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	posts, total, err := svc.List(filters)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, posts, 2)
}

func TestSearchCacheHitServesIdenticalPage(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	for _, title := range []string{"alpha topic", "beta topic", "gamma topic"} {
		_, err := svc.Create(author.ID, title, "body", models.StatusPublished, nil)
		require.NoError(t, err)
	}

	filters := ListFilters{Query: "topic", Status: models.StatusPublished, Page: 1, PerPage: 2}
	miss, _, err := svc.List(filters)
	require.NoError(t, err)

	hit, total, err := svc.List(filters)
	require.NoError(t, err)
	require.Len(t, hit, len(miss))
	for i := range miss {
		assert.Equal(t, miss[i].ID, hit[i].ID)
	}
	// A cache hit reports the page cardinality as the total.
	assert.Equal(t, int64(len(hit)), total)
}

func TestDeleteRemovesPostAndProjection(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")
	commenter := makeUser(t, db, "bob")
	comments := NewCommentService(db)

	post, err := svc.Create(author.ID, "doomed world", "body", models.StatusPublished, nil)
	require.NoError(t, err)
	_, err = comments.Add(post.ID, commenter.ID, "nice", nil)
	require.NoError(t, err)
	require.NoError(t, svc.SetReaction(commenter.ID, post.ID, models.ReactionLike))
	_, err = svc.ToggleFavorite(commenter.ID, post.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(post))

	_, err = svc.Get(post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The search projection is gone in the same unit of work.
	ids, err := svc.index.Search("doomed", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)

	posts, total, err := svc.List(ListFilters{Query: "doomed", Status: models.StatusPublished, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Zero(t, total)

	var orphans int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
	require.NoError(t, db.Model(&models.Reaction{}).Where("post_id = ?", post.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
	require.NoError(t, db.Model(&models.Favorite{}).Where("post_id = ?", post.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestUpdateReindexesContent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	post, err := svc.Create(author.ID, "old title", "old content", models.StatusPublished, nil)
	require.NoError(t, err)

	newContent := "completely fresh text"
	_, err = svc.Update(post, UpdatePostInput{Content: &newContent})
	require.NoError(t, err)

	posts, _, err := svc.List(ListFilters{Query: "fresh", Status: models.StatusPublished, Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)

	posts, _, err = svc.List(ListFilters{Query: "old content", Status: models.StatusPublished, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFollowingFeedRequiresViewer(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	_, err := svc.Create(author.ID, "Post", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	posts, total, err := svc.List(ListFilters{Status: models.StatusPublished, Feed: FeedFollowing, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, posts, "anonymous following feed must not fall back to the unfiltered listing")
	assert.Zero(t, total)
}

func TestFollowingFeedFiltersByFollowedAuthors(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	subs := NewSubscriptionService(db)
	alice := makeUser(t, db, "alice")
	bob := makeUser(t, db, "bob")
	viewer := makeUser(t, db, "carol")

	fromAlice, err := svc.Create(alice.ID, "from alice", "body", models.StatusPublished, nil)
	require.NoError(t, err)
	_, err = svc.Create(bob.ID, "from bob", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	_, err = subs.Toggle(viewer.ID, alice.ID)
	require.NoError(t, err)

	posts, total, err := svc.List(ListFilters{
		Status: models.StatusPublished, Feed: FeedFollowing,
		Page: 1, PerPage: 10, ViewerID: viewer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, fromAlice.ID, posts[0].ID)
}

func TestListFiltersByAuthorAndCategory(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	categories := NewCategoryService(db)
	alice := makeUser(t, db, "alice")
	bob := makeUser(t, db, "bob")

	tech, err := categories.Create("Tech", "tech", "", "")
	require.NoError(t, err)

	tagged, err := svc.Create(alice.ID, "tagged", "body", models.StatusPublished, []uint{tech.ID})
	require.NoError(t, err)
	_, err = svc.Create(alice.ID, "untagged", "body", models.StatusPublished, nil)
	require.NoError(t, err)
	_, err = svc.Create(bob.ID, "by bob", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	posts, total, err := svc.List(ListFilters{Status: models.StatusPublished, AuthorID: alice.ID, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, posts, 2)

	posts, total, err = svc.List(ListFilters{Status: models.StatusPublished, CategorySlug: "tech", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, tagged.ID, posts[0].ID)
}

func TestUpdateReplacesCategoriesWholesale(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	categories := NewCategoryService(db)
	author := makeUser(t, db, "alice")

	tech, err := categories.Create("Tech", "tech", "", "")
	require.NoError(t, err)
	life, err := categories.Create("Life", "life", "", "")
	require.NoError(t, err)

	post, err := svc.Create(author.ID, "T", "body", models.StatusPublished, []uint{tech.ID})
	require.NoError(t, err)

	_, err = svc.Update(post, UpdatePostInput{CategoryIDs: []uint{life.ID}})
	require.NoError(t, err)

	cats, err := svc.Categories(post.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "life", cats[0].Slug)

	// A nil list keeps the current assignments.
	title := "renamed"
	_, err = svc.Update(post, UpdatePostInput{Title: &title})
	require.NoError(t, err)
	cats, err = svc.Categories(post.ID)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestAssignCategoriesSkipsUnknownAndDuplicateIDs(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	categories := NewCategoryService(db)
	author := makeUser(t, db, "alice")

	tech, err := categories.Create("Tech", "tech", "", "")
	require.NoError(t, err)

	post, err := svc.Create(author.ID, "T", "body", models.StatusPublished, []uint{tech.ID, tech.ID, 999})
	require.NoError(t, err)

	cats, err := svc.Categories(post.ID)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestIncrementViewAndCounts(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	author := makeUser(t, db, "alice")

	post, err := svc.Create(author.ID, "T", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	require.NoError(t, svc.IncrementView(post.ID))
	require.NoError(t, svc.IncrementView(post.ID))

	reloaded, err := svc.Get(post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.ViewCount)

	// Counts over an unknown post are well-defined zeros.
	counts, err := svc.Counts(99999)
	require.NoError(t, err)
	assert.Zero(t, counts.Likes)
	assert.Zero(t, counts.Dislikes)
	assert.Zero(t, counts.Favorites)
}

func TestContentLifecycleScenario(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPostService(t, db)
	subs := NewSubscriptionService(db)
	alice := makeUser(t, db, "alice")
	bob := makeUser(t, db, "bob")
	viewer := makeUser(t, db, "carol")

	hello, err := svc.Create(alice.ID, "Hello world", "body", models.StatusPublished, nil)
	require.NoError(t, err)
	goodbye, err := svc.Create(bob.ID, "Goodbye world", "body", models.StatusPublished, nil)
	require.NoError(t, err)

	posts, total, err := svc.List(ListFilters{Query: "hello", Status: models.StatusPublished, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, hello.ID, posts[0].ID)

	saved, err := svc.ToggleFavorite(viewer.ID, hello.ID)
	require.NoError(t, err)
	assert.True(t, saved)
	favorites, err := svc.ListFavorites(viewer.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, hello.ID, favorites[0].ID)

	saved, err = svc.ToggleFavorite(viewer.ID, hello.ID)
	require.NoError(t, err)
	assert.False(t, saved)
	favorites, err = svc.ListFavorites(viewer.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	_, err = subs.Toggle(viewer.ID, bob.ID)
	require.NoError(t, err)
	posts, total, err = svc.List(ListFilters{
		Status: models.StatusPublished, Feed: FeedFollowing,
		Page: 1, PerPage: 10, ViewerID: viewer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, goodbye.ID, posts[0].ID)
}
