package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plumekit/plume/middleware"
	"github.com/plumekit/plume/models"
	"github.com/plumekit/plume/services"
	"github.com/plumekit/plume/utils"
)

// PostController manages posts, comments, reactions, and favorites.
type PostController struct {
	posts       *services.PostService
	comments    *services.CommentService
	broadcaster *services.Broadcaster
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, comments *services.CommentService, broadcaster *services.Broadcaster) *PostController {
	return &PostController{posts: posts, comments: comments, broadcaster: broadcaster}
}

// ListPosts returns one page of posts with the total match count. Free-text
// search, author, category, status, and feed filters compose.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, perPage := parsePagination(ctx.Query("page"), ctx.Query("per_page"))

	status := strings.TrimSpace(ctx.Query("status"))
	if status == "" {
		status = models.StatusPublished
	}
	if !models.ValidStatus(status) {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid status filter")
		return
	}

	filters := services.ListFilters{
		Query:        ctx.Query("q"),
		CategorySlug: strings.TrimSpace(ctx.Query("category")),
		Status:       status,
		Feed:         strings.TrimSpace(ctx.Query("feed")),
		Page:         page,
		PerPage:      perPage,
		ViewerID:     middleware.ViewerID(ctx),
	}
	if v := strings.TrimSpace(ctx.Query("author_id")); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40041, "invalid author id")
			return
		}
		filters.AuthorID = uint(id)
	}

	posts, total, err := p.posts.List(filters)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list posts")
		return
	}
	utils.Paginated(ctx, posts, total, page, perPage)
}

// CreatePost stores a new post for the authenticated author and announces it.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required,min=1,max=500"`
		Content     string `json:"content" binding:"required"`
		Status      string `json:"status"`
		CategoryIDs []uint `json:"category_ids"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.PlainText(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)

	post, err := p.posts.Create(middleware.ViewerID(ctx), title, content, req.Status, req.CategoryIDs)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			utils.Error(ctx, http.StatusBadRequest, 40022, "invalid post status")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	if post.Status == models.StatusPublished {
		p.broadcaster.Publish(services.EventPostCreated, gin.H{
			"post_id":   post.ID,
			"author_id": post.AuthorID,
			"title":     post.Title,
		})
	}

	utils.Success(ctx, post)
}

// GetPost returns a single post with categories, aggregates, and the viewer's
// reaction state, bumping its view counter.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	if err := p.posts.IncrementView(post.ID); err == nil {
		post.ViewCount++
	}

	counts, err := p.posts.Counts(post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post counts")
		return
	}
	categories, err := p.posts.Categories(post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post categories")
		return
	}

	payload := gin.H{
		"post":       post,
		"categories": categories,
		"counts":     counts,
	}
	if viewerID := middleware.ViewerID(ctx); viewerID != 0 {
		reaction, err := p.posts.UserReaction(viewerID, post.ID)
		if err == nil {
			payload["viewer_reaction"] = reaction
		}
		favorited, err := p.posts.IsFavorited(viewerID, post.ID)
		if err == nil {
			payload["viewer_favorited"] = favorited
		}
	}
	utils.Success(ctx, payload)
}

// UpdatePost applies partial changes. Only the author or a moderator may edit.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title       *string `json:"title"`
		Content     *string `json:"content"`
		Status      *string `json:"status"`
		CategoryIDs []uint  `json:"category_ids"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if post.AuthorID != middleware.ViewerID(ctx) && !canModerate(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own posts")
		return
	}

	in := services.UpdatePostInput{Status: req.Status, CategoryIDs: req.CategoryIDs}
	if req.Title != nil {
		title := utils.PlainText(strings.TrimSpace(*req.Title))
		if title == "" {
			utils.Error(ctx, http.StatusBadRequest, 40025, "title cannot be empty")
			return
		}
		in.Title = &title
	}
	if req.Content != nil {
		content := utils.Sanitize(*req.Content)
		in.Content = &content
	}

	updated, err := p.posts.Update(post, in)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			utils.Error(ctx, http.StatusBadRequest, 40026, "invalid post status")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}
	utils.Success(ctx, updated)
}

// DeletePost removes a post. Only the author or a moderator may delete.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if post.AuthorID != middleware.ViewerID(ctx) && !canModerate(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own posts")
		return
	}
	if err := p.posts.Delete(post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// React records a like or dislike for the authenticated viewer. Repeating
// the same reaction is a no-op; a different one replaces the current row.
func (p *PostController) React(ctx *gin.Context) {
	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40027, "invalid request payload")
		return
	}

	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if err := p.posts.SetReaction(middleware.ViewerID(ctx), post.ID, req.Type); err != nil {
		if errors.Is(err, services.ErrInvalidReaction) {
			utils.Error(ctx, http.StatusBadRequest, 40028, "reaction must be like or dislike")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to record reaction")
		return
	}

	counts, err := p.posts.Counts(post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post counts")
		return
	}
	utils.Success(ctx, counts)
}

// Unreact removes the viewer's reaction if present.
func (p *PostController) Unreact(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if err := p.posts.RemoveReaction(middleware.ViewerID(ctx), post.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to remove reaction")
		return
	}
	counts, err := p.posts.Counts(post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post counts")
		return
	}
	utils.Success(ctx, counts)
}

// ToggleFavorite flips the viewer's favorite state for a post.
func (p *PostController) ToggleFavorite(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	favorited, err := p.posts.ToggleFavorite(middleware.ViewerID(ctx), post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to toggle favorite")
		return
	}
	utils.Success(ctx, gin.H{"favorited": favorited})
}

// ListFavorites returns the viewer's saved posts, most recently saved first.
func (p *PostController) ListFavorites(ctx *gin.Context) {
	page, perPage := parsePagination(ctx.Query("page"), ctx.Query("per_page"))
	posts, err := p.posts.ListFavorites(middleware.ViewerID(ctx), perPage, (page-1)*perPage)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to list favorites")
		return
	}
	utils.Success(ctx, gin.H{"items": posts, "page": page, "per_page": perPage})
}

// CreateComment adds a comment to a post and announces it.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content         string `json:"content" binding:"required"`
		ParentCommentID *uint  `json:"parent_comment_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "content cannot be empty")
		return
	}

	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	comment, err := p.comments.Add(postID, middleware.ViewerID(ctx), content, req.ParentCommentID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create comment")
		return
	}

	p.broadcaster.Publish(services.EventCommentCreated, gin.H{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.AuthorID,
	})

	utils.Success(ctx, comment)
}

// ListComments returns a post's approved comments, oldest first.
func (p *PostController) ListComments(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	comments, err := p.comments.List(postID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to list comments")
		return
	}
	utils.Success(ctx, gin.H{"items": comments})
}

// DeleteComment removes a comment. Only its author or a moderator may delete.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	commentID, ok := parseIDParam(ctx, "commentId")
	if !ok {
		return
	}
	comment, err := p.comments.Get(commentID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load comment")
		return
	}
	if comment.AuthorID != middleware.ViewerID(ctx) && !canModerate(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only delete your own comment")
		return
	}
	if err := p.comments.Delete(comment); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to delete comment")
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return nil, false
	}
	post, err := p.posts.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load post")
		return nil, false
	}
	return post, true
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid identifier")
		return 0, false
	}
	return uint(id), true
}

func parsePagination(pageStr, perPageStr string) (int, int) {
	page := 1
	perPage := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(perPageStr); err == nil && s > 0 {
		perPage = s
	}
	if perPage > 50 {
		perPage = 50
	}
	return page, perPage
}
