package controllers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-shop-backend/config"
	"github.com/vnkhanh/e-shop-backend/middleware"
	"github.com/vnkhanh/e-shop-backend/models"
)

// Input cho Create / Update
type ProductInput struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Code        string  `json:"code" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Stock       int     `json:"stock" binding:"gte=0"`
	Category    string  `json:"category"`
	Thumbnail   string  `json:"thumbnail"`
}

// GET /api/products
func GetProducts(c *gin.Context) {
	db := config.DB

	query := db.Model(&models.Product{}).Where("status = ?", true)

	// Lọc theo danh mục
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	// Tìm kiếm theo tên
	if search := c.Query("search"); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}

	// Sắp xếp theo giá
	switch c.Query("sort") {
	case "asc":
		query = query.Order("price ASC")
	case "desc":
		query = query.Order("price DESC")
	default:
		query = query.Order("created_at DESC")
	}

	// Phân trang
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var total int64
	query.Count(&total)

	var products []models.Product
	if err := query.Offset((page - 1) * limit).Limit(limit).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể lấy danh sách sản phẩm"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"payload":     products,
		"total":       total,
		"page":        page,
		"total_pages": int(math.Ceil(float64(total) / float64(limit))),
	})
}

// GET /api/products/:pid
func GetProduct(c *gin.Context) {
	pid := c.Param("pid")

	var product models.Product
	if err := config.DB.First(&product, "id = ?", pid).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Không tìm thấy sản phẩm"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": product})
}

// POST /api/products (admin)
func CreateProduct(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	logger := middleware.GetLogger(c)

	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	// Code sản phẩm không được trùng
	var count int64
	db.Model(&models.Product{}).Where("code = ?", input.Code).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Code sản phẩm đã tồn tại"})
		return
	}

	var ownerUUID *uuid.UUID
	if userIDStr := c.GetString("user_id"); userIDStr != "" {
		if parsed, err := uuid.Parse(userIDStr); err == nil {
			ownerUUID = &parsed
		}
	}

	product := models.Product{
		Title:       input.Title,
		Slug:        slug.Make(input.Title),
		Description: input.Description,
		Code:        input.Code,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		Thumbnail:   input.Thumbnail,
		Status:      true,
		OwnerID:     ownerUUID,
	}

	if err := db.Create(&product).Error; err != nil {
		// Pre-check ở trên vẫn có thể thua race với request trùng code
		if isUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Code sản phẩm đã tồn tại"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể tạo sản phẩm"})
		return
	}

	logger.Info("đã tạo sản phẩm", "product_id", product.ID, "code", product.Code)

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Tạo sản phẩm thành công",
		"payload": product,
	})
}

// PUT /api/products/:pid (admin)
func UpdateProduct(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	pid := c.Param("pid")

	var product models.Product
	if err := db.First(&product, "id = ?", pid).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Không tìm thấy sản phẩm"})
		return
	}

	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	// Nếu đổi code thì kiểm tra trùng với sản phẩm khác
	if input.Code != product.Code {
		var count int64
		db.Model(&models.Product{}).Where("code = ? AND id <> ?", input.Code, product.ID).Count(&count)
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Code sản phẩm đã tồn tại"})
			return
		}
	}

	product.Title = input.Title
	product.Slug = slug.Make(input.Title)
	product.Description = input.Description
	product.Code = input.Code
	product.Price = input.Price
	product.Stock = input.Stock
	product.Category = input.Category
	product.Thumbnail = input.Thumbnail

	if err := db.Save(&product).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Code sản phẩm đã tồn tại"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể cập nhật sản phẩm"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Cập nhật sản phẩm thành công",
		"payload": product,
	})
}

// DELETE /api/products/:pid (admin)
func DeleteProduct(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	pid := c.Param("pid")

	var product models.Product
	if err := db.First(&product, "id = ?", pid).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Không tìm thấy sản phẩm"})
		return
	}

	if err := db.Delete(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Không thể xóa sản phẩm"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Đã xóa sản phẩm"})
}
