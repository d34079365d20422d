package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vruksh/plantshop/internal/imagestore"
	"github.com/vruksh/plantshop/internal/logging"
	"github.com/vruksh/plantshop/internal/models"
	"github.com/vruksh/plantshop/internal/mykafka"
	"github.com/vruksh/plantshop/internal/service/search"
	"github.com/vruksh/plantshop/internal/util"
)

// ImageFolder is the remote folder product images are uploaded under.
const ImageFolder = "vruksh/products"

type ProductHandler struct {
	DB       *gorm.DB
	Producer mykafka.Publisher
	ES       *elasticsearch.Client
	Images   imagestore.Store
}

func (h *ProductHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// index mirrors the product into elasticsearch, best-effort: the database row
// stays the source of truth.
func (h *ProductHandler) index(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, search.Index, p); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es index failed", "productID", p.ID, "err", err)
	}
}

func (h *ProductHandler) unindex(c echo.Context, id uint) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.DeleteProduct(ctx, h.ES, search.Index, id); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es delete failed", "productID", id, "err", err)
	}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var product models.Product
	if err := h.DB.Preload("Images").Preload("Category").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, product)
}

// GetProducts lists the catalog with an optional case-insensitive keyword
// match on name and an optional category filter, at a fixed page size.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	if page < 1 {
		page = 1
	}

	q := h.DB.Model(&models.Product{})
	if keyword := c.QueryParam("keyword"); keyword != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+keyword+"%")
	}
	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category_id = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Product
	if err := q.Preload("Images").Preload("Category").
		Order("id ASC").
		Offset((page - 1) * util.CatalogPageSize).
		Limit(util.CatalogPageSize).
		Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	pages := (total + util.CatalogPageSize - 1) / util.CatalogPageSize

	return c.JSON(http.StatusOK, echo.Map{
		"products": items,
		"page":     page,
		"pages":    pages,
	})
}

// uploadImages pushes files to the image host one by one. A failure aborts
// the request; files already uploaded are not removed.
func (h *ProductHandler) uploadImages(c echo.Context, files []*multipart.FileHeader) ([]models.ProductImage, error) {
	images := make([]models.ProductImage, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, err
		}
		img, err := h.Images.Upload(c.Request().Context(), src, ImageFolder)
		src.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, models.ProductImage{PublicID: img.PublicID, URL: img.URL})
	}
	return images, nil
}

func (h *ProductHandler) destroyImages(c echo.Context, images []models.ProductImage) error {
	for _, img := range images {
		if err := h.Images.Destroy(c.Request().Context(), img.PublicID); err != nil {
			return err
		}
	}
	return nil
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req struct {
		Name        string  `form:"name"        validate:"required"`
		Description string  `form:"description" validate:"required"`
		Price       float64 `form:"price"       validate:"min=0"`
		CategoryID  uint    `form:"category_id" validate:"required"`
		Stock       int     `form:"stock"       validate:"min=0"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var images []models.ProductImage
	if form, err := c.MultipartForm(); err == nil && form != nil {
		images, err = h.uploadImages(c, form.File["images"])
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "image upload failed: "+err.Error())
		}
	}

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Stock:       req.Stock,
		Images:      images,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.index(c, &prod)
	h.publish(c, map[string]interface{}{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

// UpdateProduct patches only the fields present in the form. Presence is
// checked explicitly so zero values (price 0, stock 0) are applied, not
// skipped.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var prod models.Product
	if err := h.DB.Preload("Images").First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if params.Has("name") {
		prod.Name = params.Get("name")
	}
	if params.Has("description") {
		prod.Description = params.Get("description")
	}
	if params.Has("price") {
		price, err := strconv.ParseFloat(params.Get("price"), 64)
		if err != nil || price < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid price")
		}
		prod.Price = price
	}
	if params.Has("category_id") {
		categoryID, err := strconv.ParseUint(params.Get("category_id"), 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid category_id")
		}
		prod.CategoryID = uint(categoryID)
	}
	if params.Has("stock") {
		stock, err := strconv.Atoi(params.Get("stock"))
		if err != nil || stock < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid stock")
		}
		prod.Stock = stock
	}

	if form, err := c.MultipartForm(); err == nil && form != nil && len(form.File["images"]) > 0 {
		if err := h.destroyImages(c, prod.Images); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "image delete failed: "+err.Error())
		}
		if err := h.DB.Where("product_id = ?", prod.ID).Delete(&models.ProductImage{}).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		images, err := h.uploadImages(c, form.File["images"])
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "image upload failed: "+err.Error())
		}
		prod.Images = images
	}

	if err := h.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.index(c, &prod)
	h.publish(c, map[string]interface{}{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var prod models.Product
	if err := h.DB.Preload("Images").First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.destroyImages(c, prod.Images); err != nil {
		c.Logger().Errorf("image delete error: %v", err)
	}

	if err := h.DB.Where("product_id = ?", prod.ID).Delete(&models.ProductImage{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Delete(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.unindex(c, prod.ID)
	h.publish(c, map[string]interface{}{
		"type":      "product_deleted",
		"productID": prod.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "product removed"})
}
