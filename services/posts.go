package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/plumekit/plume/models"
	"github.com/plumekit/plume/utils"
)

// Feed modes recognized by List. An unset feed applies no extra join.
const (
	// FeedFollowing restricts the listing to authors the viewer subscribes to.
	FeedFollowing = "following"
	// FeedRecommended is a reserved placeholder. It currently behaves as a
	// pass-through listing; no recommendation model is wired in.
	FeedRecommended = "recommended"
)

const excerptRunes = 200

// ListFilters is the full search signature of a listing request. Every field
// participates in the cache key, so changing any filter produces a distinct
// cached result set.
type ListFilters struct {
	Query        string
	AuthorID     uint
	CategorySlug string
	Status       string
	Feed         string
	Page         int
	PerPage      int
	ViewerID     uint
}

// cacheKey normalizes the signature: trimmed lowercase query joined with
// every filter component.
func (f ListFilters) cacheKey(page, perPage int) string {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	return fmt.Sprintf("%s|%d|%s|%s|%d|%d|%s|%d",
		q, f.AuthorID, f.CategorySlug, f.Status, page, perPage, f.Feed, f.ViewerID)
}

// PostCounts carries the live per-post aggregates.
type PostCounts struct {
	Likes     int64 `json:"likes"`
	Dislikes  int64 `json:"dislikes"`
	Favorites int64 `json:"favorites"`
}

// UpdatePostInput holds optional post changes. Nil fields keep the current
// value; a nil CategoryIDs keeps the current category set, a non-nil one
// replaces it wholesale.
type UpdatePostInput struct {
	Title       *string
	Content     *string
	Status      *string
	CategoryIDs []uint
}

// PostService is the query engine and write path for posts. Every mutation
// synchronously maintains the full-text projection and clears the search
// result cache before returning.
type PostService struct {
	db    *gorm.DB
	cache ResultCache
	index *SearchIndex
}

// NewPostService wires the engine to its storage, cache, and index.
func NewPostService(db *gorm.DB, cache ResultCache, index *SearchIndex) *PostService {
	return &PostService{db: db, cache: cache, index: index}
}

// List returns one page of posts plus the total match count. Pages are
// 1-based; per-page is clamped to [1, 50]; a page beyond the result set
// yields an empty slice with the correct total. Filters narrow in a fixed
// order: status, author, category, feed, free text.
func (s *PostService) List(f ListFilters) ([]models.Post, int64, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	perPage := f.PerPage
	if perPage < 1 {
		perPage = 1
	}
	if perPage > 50 {
		perPage = 50
	}
	offset := (page - 1) * perPage

	// A following feed without a viewer matches nothing. It must not fall
	// back to the unfiltered listing.
	if f.Feed == FeedFollowing && f.ViewerID == 0 {
		return []models.Post{}, 0, nil
	}

	query := s.db.Model(&models.Post{})
	if f.Status != "" {
		query = query.Where("posts.status = ?", f.Status)
	}
	if f.AuthorID != 0 {
		query = query.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.CategorySlug != "" {
		query = query.
			Joins("JOIN post_categories ON post_categories.post_id = posts.id").
			Joins("JOIN categories ON categories.id = post_categories.category_id").
			Where("categories.slug = ?", f.CategorySlug)
	}
	if f.Feed == FeedFollowing {
		query = query.
			Joins("JOIN subscriptions ON subscriptions.target_user_id = posts.author_id").
			Where("subscriptions.subscriber_id = ?", f.ViewerID)
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		return s.listWithQuery(query, f, q, page, perPage, offset)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []models.Post
	err := query.Order("posts.created_at DESC, posts.id DESC").
		Offset(offset).Limit(perPage).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// listWithQuery handles the free-text path: cache lookup, then either a
// ranked window from the native index or a direct substring scan. Relevance
// only selects which identifiers land in the page window; returned posts are
// always ordered newest first.
func (s *PostService) listWithQuery(query *gorm.DB, f ListFilters, q string, page, perPage, offset int) ([]models.Post, int64, error) {
	key := f.cacheKey(page, perPage)

	if ids, ok := s.cache.Get(key); ok {
		if len(ids) == 0 {
			return []models.Post{}, 0, nil
		}
		posts, err := s.postsByIDs(ids)
		if err != nil {
			return nil, 0, err
		}
		return posts, int64(len(posts)), nil
	}

	like := "%" + q + "%"

	if s.index.Native() {
		ids, err := s.index.Search(q, perPage, offset)
		if err != nil {
			return nil, 0, err
		}
		// The total is approximated with a substring count; an exact ranked
		// match count is deliberately not computed.
		countQuery := s.db.Model(&models.Post{})
		if f.Status != "" {
			countQuery = countQuery.Where("status = ?", f.Status)
		}
		var total int64
		if err := countQuery.Where("title LIKE ? OR content LIKE ?", like, like).Count(&total).Error; err != nil {
			return nil, 0, err
		}
		s.cache.Put(key, ids)
		if len(ids) == 0 {
			return []models.Post{}, total, nil
		}
		posts, err := s.postsByIDs(ids)
		if err != nil {
			return nil, 0, err
		}
		if total == 0 {
			total = int64(len(posts))
		}
		return posts, total, nil
	}

	// Fallback: substring match composed onto the structural filters, exact
	// count, direct pagination. The resulting page's identifiers are cached.
	query = query.Where("(posts.title LIKE ? OR posts.content LIKE ?)", like, like)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []models.Post
	err := query.Order("posts.created_at DESC, posts.id DESC").
		Offset(offset).Limit(perPage).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	s.cache.Put(key, ids)
	return posts, total, nil
}

func (s *PostService) postsByIDs(ids []uint) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.Where("id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	return posts, err
}

// Get loads a post by id.
func (s *PostService) Get(id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create stores a post, its category assignments, and its search projection
// in one transaction, then clears the result cache.
func (s *PostService) Create(authorID uint, title, content, status string, categoryIDs []uint) (*models.Post, error) {
	if status == "" {
		status = models.StatusDraft
	}
	if !models.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	post := models.Post{
		AuthorID: authorID,
		Title:    title,
		Content:  content,
		Excerpt:  makeExcerpt(content),
		Status:   status,
	}
	if status == models.StatusPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		if err := s.assignCategories(tx, post.ID, categoryIDs); err != nil {
			return err
		}
		return s.index.Index(tx, post.ID, post.Title, post.Content)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Clear()
	return &post, nil
}

// Update applies the given changes. PublishedAt is stamped only on the first
// transition into published; a non-nil category list replaces the existing
// assignments wholesale.
func (s *PostService) Update(post *models.Post, in UpdatePostInput) (*models.Post, error) {
	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
		post.Excerpt = makeExcerpt(*in.Content)
	}
	if in.Status != nil {
		if !models.ValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		post.Status = *in.Status
		if post.Status == models.StatusPublished && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(post).Error; err != nil {
			return err
		}
		if in.CategoryIDs != nil {
			if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostCategory{}).Error; err != nil {
				return err
			}
			if err := s.assignCategories(tx, post.ID, in.CategoryIDs); err != nil {
				return err
			}
		}
		return s.index.Index(tx, post.ID, post.Title, post.Content)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Clear()
	return post, nil
}

// Delete removes the post together with everything it owns: category
// assignments, comments, reactions, favorites, and the search projection.
func (s *PostService) Delete(post *models.Post) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := s.index.Remove(tx, post.ID); err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		return err
	}
	s.cache.Clear()
	return nil
}

// IncrementView bumps the view counter without touching updated_at.
func (s *PostService) IncrementView(postID uint) error {
	return s.db.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// Counts returns live like/dislike/favorite aggregates. An unknown post
// yields zeros; counting over an empty relation is well-defined.
func (s *PostService) Counts(postID uint) (PostCounts, error) {
	var counts PostCounts
	err := s.db.Model(&models.Reaction{}).
		Where("post_id = ? AND reaction_type = ?", postID, models.ReactionLike).
		Count(&counts.Likes).Error
	if err != nil {
		return counts, err
	}
	err = s.db.Model(&models.Reaction{}).
		Where("post_id = ? AND reaction_type = ?", postID, models.ReactionDislike).
		Count(&counts.Dislikes).Error
	if err != nil {
		return counts, err
	}
	err = s.db.Model(&models.Favorite{}).
		Where("post_id = ?", postID).
		Count(&counts.Favorites).Error
	return counts, err
}

// SetReaction records the user's reaction, mutating the existing row in
// place when switching type. A duplicate-key race on insert is resolved by
// updating the row that won.
func (s *PostService) SetReaction(userID, postID uint, reactionType string) error {
	if !models.ValidReaction(reactionType) {
		return ErrInvalidReaction
	}
	var existing models.Reaction
	err := s.db.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
	if err == nil {
		if existing.ReactionType == reactionType {
			return nil
		}
		return s.db.Model(&models.Reaction{}).
			Where("user_id = ? AND post_id = ?", userID, postID).
			Update("reaction_type", reactionType).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	err = s.db.Create(&models.Reaction{UserID: userID, PostID: postID, ReactionType: reactionType}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return s.db.Model(&models.Reaction{}).
			Where("user_id = ? AND post_id = ?", userID, postID).
			Update("reaction_type", reactionType).Error
	}
	return err
}

// RemoveReaction deletes the user's reaction if present; absent is a no-op.
func (s *PostService) RemoveReaction(userID, postID uint) error {
	return s.db.Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Reaction{}).Error
}

// ToggleFavorite flips the favorite state and returns the resulting
// membership. A duplicate-key race on insert means another request already
// reached the target state.
func (s *PostService) ToggleFavorite(userID, postID uint) (bool, error) {
	res := s.db.Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	err := s.db.Create(&models.Favorite{UserID: userID, PostID: postID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsFavorited reports whether the user has saved the post.
func (s *PostService) IsFavorited(userID, postID uint) (bool, error) {
	var cnt int64
	err := s.db.Model(&models.Favorite{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&cnt).Error
	return cnt > 0, err
}

// UserReaction returns the user's current reaction type, or "" when none.
func (s *PostService) UserReaction(userID, postID uint) (string, error) {
	var r models.Reaction
	err := s.db.Where("user_id = ? AND post_id = ?", userID, postID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return r.ReactionType, nil
}

// ListFavorites returns the user's saved posts, most recently saved first.
func (s *PostService) ListFavorites(userID uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.Model(&models.Post{}).
		Joins("JOIN favorites ON favorites.post_id = posts.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.saved_at DESC, posts.id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

// Categories returns a post's categories ordered by name.
func (s *PostService) Categories(postID uint) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.Model(&models.Category{}).
		Joins("JOIN post_categories ON post_categories.category_id = categories.id").
		Where("post_categories.post_id = ?", postID).
		Order("categories.name ASC").
		Find(&cats).Error
	return cats, err
}

// assignCategories inserts join rows for each existing category, ignoring
// unknown identifiers and duplicates in the input.
func (s *PostService) assignCategories(tx *gorm.DB, postID uint, categoryIDs []uint) error {
	for _, cid := range utils.UniqueUint(categoryIDs) {
		var cnt int64
		if err := tx.Model(&models.Category{}).Where("id = ?", cid).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			continue
		}
		if err := tx.Create(&models.PostCategory{PostID: postID, CategoryID: cid}).Error; err != nil {
			return err
		}
	}
	return nil
}

// makeExcerpt trims content and truncates it to a preview length.
func makeExcerpt(content string) string {
	c := strings.TrimSpace(content)
	runes := []rune(c)
	if len(runes) <= excerptRunes {
		return c
	}
	return string(runes[:excerptRunes]) + "…"
}
