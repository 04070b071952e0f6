package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"realnews/cache"
	"realnews/models"
)

const defaultPageSize = 50

type articlePage struct {
	Articles   []models.Article `json:"articles"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// ListArticles serves published articles with optional category and search
// filters and pagination. The unfiltered first page is cached for a minute;
// filtered queries always hit the store.
func (h *Handlers) ListArticles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}
	category := c.Query("category")
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))

	cacheable := category == "" && search == "" && page == 1 && limit == defaultPageSize
	if cacheable {
		if cached, ok := h.Cache.Get(cache.KeyPublishedArticles); ok {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	articles, err := h.Articles.Published(c.Request.Context())
	if err != nil {
		h.serverError(c, "failed to fetch articles", err)
		return
	}

	articles = filterArticles(articles, category, search)
	resp := paginate(articles, page, limit)

	if cacheable {
		h.Cache.Set(cache.KeyPublishedArticles, resp, cache.TTLArticles)
	}
	c.JSON(http.StatusOK, resp)
}

func filterArticles(articles []models.Article, category, search string) []models.Article {
	if category == "" && search == "" {
		return articles
	}
	out := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if category != "" && a.Category != category {
			continue
		}
		if search != "" && !matchesSearch(a, search) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchesSearch(a models.Article, search string) bool {
	return strings.Contains(strings.ToLower(a.Title), search) ||
		strings.Contains(strings.ToLower(a.Excerpt), search) ||
		strings.Contains(strings.ToLower(a.Content), search)
}

func paginate(articles []models.Article, page, limit int) articlePage {
	total := len(articles)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	totalPages := (total + limit - 1) / limit
	return articlePage{
		Articles:   articles[start:end],
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// GetArticle returns one article. Unpublished articles are hidden from the
// public route; the admin surface reads drafts through ListDrafts instead.
func (h *Handlers) GetArticle(c *gin.Context) {
	id := c.Param("id")

	if cached, ok := h.Cache.Get(cache.KeyArticle(id)); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	article, err := h.Articles.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}
	if article.Status != models.StatusPublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	h.Cache.Set(cache.KeyArticle(id), article, cache.TTLArticles)
	c.JSON(http.StatusOK, article)
}

// ListDrafts returns draft articles for the admin surface. The list is
// cached like the published one and invalidated on every article write.
func (h *Handlers) ListDrafts(c *gin.Context) {
	if cached, ok := h.Cache.Get(cache.KeyDraftArticles); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	drafts, err := h.Articles.Drafts(c.Request.Context())
	if err != nil {
		h.serverError(c, "failed to fetch draft articles", err)
		return
	}
	if drafts == nil {
		drafts = []models.Article{}
	}

	h.Cache.Set(cache.KeyDraftArticles, drafts, cache.TTLArticles)
	c.JSON(http.StatusOK, drafts)
}

type updateArticleRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Excerpt  *string `json:"excerpt"`
	Category *string `json:"category"`
	ImageURL *string `json:"imageUrl"`
	Status   *string `json:"status"`
}

// UpdateArticle applies a partial edit.
func (h *Handlers) UpdateArticle(c *gin.Context) {
	var req updateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	set := bson.M{}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Content != nil {
		set["content"] = *req.Content
	}
	if req.Excerpt != nil {
		set["excerpt"] = *req.Excerpt
	}
	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
		set["category"] = *req.Category
	}
	if req.ImageURL != nil {
		set["image_url"] = *req.ImageURL
	}
	if req.Status != nil {
		set["status"] = *req.Status
	}
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty update"})
		return
	}

	id := c.Param("id")
	article, err := h.Articles.Update(c.Request.Context(), id, set)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	h.audit(c.Request.Context(), "article_updated", models.LogSuccess,
		fmt.Sprintf("Maqola yangilandi: %s", article.Title), "")
	h.invalidateArticle(id)

	c.JSON(http.StatusOK, article)
}

// PublishArticle publishes one article and pushes it to the distribution
// channels. Channel failures never roll back the publish.
func (h *Handlers) PublishArticle(c *gin.Context) {
	id := c.Param("id")
	article, err := h.Articles.Publish(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	meta, _ := json.Marshal(gin.H{"articleId": article.ID, "publishedAt": article.PublishedAt})
	h.audit(c.Request.Context(), "article_published", models.LogSuccess,
		fmt.Sprintf("Maqola nashr etildi: %s", article.Title), string(meta))

	h.Runner.Distribute(c.Request.Context(), *article)

	h.invalidateArticle(id)

	c.JSON(http.StatusOK, article)
}

// DeleteArticle removes one article.
func (h *Handlers) DeleteArticle(c *gin.Context) {
	id := c.Param("id")
	if err := h.Articles.Delete(c.Request.Context(), id); err != nil {
		h.serverError(c, "failed to delete article", err)
		return
	}

	h.audit(c.Request.Context(), "article_deleted", models.LogSuccess,
		fmt.Sprintf("Maqola o'chirildi: %s", id), "")
	h.invalidateArticle(id)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SearchArticles is the public search endpoint over published articles.
func (h *Handlers) SearchArticles(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("q")))
	category := c.Query("category")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	if query == "" && category == "" {
		c.JSON(http.StatusOK, articlePage{Articles: []models.Article{}, Page: page, Limit: limit})
		return
	}

	articles, err := h.Articles.Published(c.Request.Context())
	if err != nil {
		h.serverError(c, "search failed", err)
		return
	}

	articles = filterArticles(articles, category, query)
	c.JSON(http.StatusOK, paginate(articles, page, limit))
}
