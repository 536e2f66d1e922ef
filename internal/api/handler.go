package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"papalote-market/internal/cart"
	"papalote-market/internal/catalog"
	"papalote-market/internal/comparison"
	"papalote-market/internal/models"
	"papalote-market/internal/recent"
	"papalote-market/internal/recommend"
	"papalote-market/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TrendingSource serves the popularity ranking maintained by the analytics
// worker. May be nil, in which case the trending endpoint reports empty.
type TrendingSource interface {
	TopProducts(ctx context.Context, n int64) ([]string, error)
}

// Handler contains HTTP handlers
type Handler struct {
	cart       *cart.Cart
	comparison *comparison.Set
	tracker    *recent.Tracker
	engine     *recommend.Engine
	catalog    *catalog.Cache
	trending   TrendingSource
}

// NewHandler creates a new HTTP handler
func NewHandler(
	cartContainer *cart.Cart,
	comparisonSet *comparison.Set,
	tracker *recent.Tracker,
	engine *recommend.Engine,
	cache *catalog.Cache,
	trending TrendingSource,
) *Handler {
	return &Handler{
		cart:       cartContainer,
		comparison: comparisonSet,
		tracker:    tracker,
		engine:     engine,
		catalog:    cache,
		trending:   trending,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/trending", h.trendingProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.POST("/products/:id/view", h.trackView)
		v1.GET("/products/:id/recommendations", h.getRecommendations)

		v1.GET("/cart", h.getCart)
		v1.DELETE("/cart", h.clearCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PUT("/cart/items/:id", h.updateCartItem)
		v1.DELETE("/cart/items/:id", h.removeCartItem)

		v1.GET("/comparison", h.getComparison)
		v1.DELETE("/comparison", h.clearComparison)
		v1.POST("/comparison/:id", h.addComparison)
		v1.POST("/comparison/:id/toggle", h.toggleComparison)
		v1.DELETE("/comparison/:id", h.removeComparison)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"time":     time.Now().Unix(),
		"products": h.catalog.Len(),
	})
}

// listProducts returns the catalog snapshot
func (h *Handler) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"products": h.catalog.Products(),
	})
}

// getProduct returns one product by id
func (h *Handler) getProduct(c *gin.Context) {
	product, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}
	c.JSON(http.StatusOK, product)
}

// trackView records a product-detail view in the recently-viewed history
func (h *Handler) trackView(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.catalog.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	h.tracker.Add(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}

// getRecommendations returns all three recommendation lists for a product
func (h *Handler) getRecommendations(c *gin.Context) {
	ref, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	opts := recommend.Options{
		SimilarLimit:        queryInt(c, "similar_limit"),
		CrossCategoryLimit:  queryInt(c, "cross_limit"),
		RecentlyViewedLimit: queryInt(c, "recent_limit"),
	}

	set := h.engine.Combined(c.Request.Context(), ref, h.catalog.Products(), opts)
	c.JSON(http.StatusOK, set)
}

// trendingProducts returns the most added-to-cart products
func (h *Handler) trendingProducts(c *gin.Context) {
	products := make([]models.Product, 0, 10)

	if h.trending != nil {
		ids, err := h.trending.TopProducts(c.Request.Context(), 10)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to load trending products",
				"details": err.Error(),
			})
			return
		}
		for _, id := range ids {
			if p, ok := h.catalog.Get(id); ok {
				products = append(products, p)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
	})
}

// AddCartItemRequest is the add-to-cart payload
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest is the quantity-update payload. Quantity is a
// pointer so an explicit zero (remove) survives binding.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// addCartItem handles adding a product to the cart
func (h *Handler) addCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, ok := h.catalog.Get(req.ProductID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	h.cart.Add(c.Request.Context(), product, req.Quantity)
	c.JSON(http.StatusCreated, h.cartSummary())
}

// updateCartItem sets the absolute quantity of a cart line
func (h *Handler) updateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	h.cart.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	c.JSON(http.StatusOK, h.cartSummary())
}

// removeCartItem deletes a cart line
func (h *Handler) removeCartItem(c *gin.Context) {
	h.cart.Remove(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, h.cartSummary())
}

// getCart returns the cart with derived count and total
func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartSummary())
}

// clearCart empties the cart
func (h *Handler) clearCart(c *gin.Context) {
	h.cart.Clear(c.Request.Context())
	c.JSON(http.StatusOK, h.cartSummary())
}

func (h *Handler) cartSummary() gin.H {
	return gin.H{
		"items": h.cart.Items(),
		"count": h.cart.Count(),
		"total": h.cart.Total(),
	}
}

// addComparison adds a product to the comparison set
func (h *Handler) addComparison(c *gin.Context) {
	product, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	if h.comparison.Contains(product.ID) {
		c.JSON(http.StatusOK, h.comparisonSummary(false))
		return
	}

	if !h.comparison.Add(c.Request.Context(), product) {
		c.JSON(http.StatusConflict, gin.H{
			"error":        "Comparison limit reached",
			"max_products": h.comparison.MaxProducts(),
		})
		return
	}

	c.JSON(http.StatusCreated, h.comparisonSummary(true))
}

// toggleComparison adds the product if absent, removes it if present
func (h *Handler) toggleComparison(c *gin.Context) {
	product, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	wasPresent := h.comparison.Contains(product.ID)
	comparing := h.comparison.Toggle(c.Request.Context(), product)

	if !comparing && !wasPresent {
		c.JSON(http.StatusConflict, gin.H{
			"error":        "Comparison limit reached",
			"max_products": h.comparison.MaxProducts(),
		})
		return
	}

	c.JSON(http.StatusOK, h.comparisonSummary(comparing))
}

// removeComparison removes a product from the comparison set
func (h *Handler) removeComparison(c *gin.Context) {
	h.comparison.Remove(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, h.comparisonSummary(false))
}

// getComparison returns the comparison set
func (h *Handler) getComparison(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"products": h.comparison.Products(),
		"count":    h.comparison.Count(),
		"is_full":  h.comparison.IsFull(),
	})
}

// clearComparison empties the comparison set
func (h *Handler) clearComparison(c *gin.Context) {
	h.comparison.Clear(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *Handler) comparisonSummary(comparing bool) gin.H {
	return gin.H{
		"comparing": comparing,
		"count":     h.comparison.Count(),
		"is_full":   h.comparison.IsFull(),
	}
}

func queryInt(c *gin.Context, name string) int {
	val, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return val
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
