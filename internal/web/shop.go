package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/missionhq/internal/wallet"
)

// ShopHandler lists, stocks and sells shop items.
type ShopHandler struct {
	wallet *wallet.Service
}

// NewShopHandler creates a ShopHandler over the wallet.
func NewShopHandler(w *wallet.Service) *ShopHandler {
	return &ShopHandler{wallet: w}
}

// GET /api/shop
func (h *ShopHandler) List(c *gin.Context) {
	items, err := h.wallet.Items(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []wallet.Item{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// POST /api/shop
// body: { "id": "...", "title": "...", "price": 10, "stock": -1 }
func (h *ShopHandler) Add(c *gin.Context) {
	var req struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Price int    `json:"price"`
		Stock *int   `json:"stock"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidInput(err))
		return
	}
	item := wallet.Item{ID: req.ID, Title: req.Title, Price: req.Price, Stock: -1}
	if req.Stock != nil {
		item.Stock = *req.Stock
	}
	saved, err := h.wallet.AddItem(c.Request.Context(), item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// POST /api/cadets/:user/purchases
// body: { "item_id": "..." }
func (h *ShopHandler) Buy(c *gin.Context) {
	var req struct {
		ItemID string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidInput(err))
		return
	}
	p, err := h.wallet.Buy(c.Request.Context(), c.Param("user"), req.ItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GET /api/cadets/:user/purchases
func (h *ShopHandler) Purchases(c *gin.Context) {
	list, err := h.wallet.Purchases(c.Request.Context(), c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []wallet.Purchase{}
	}
	c.JSON(http.StatusOK, gin.H{"purchases": list})
}
