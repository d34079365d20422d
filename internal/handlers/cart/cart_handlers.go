package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vruksh/plantshop/internal/handlers"
	"github.com/vruksh/plantshop/internal/models"
	"github.com/vruksh/plantshop/internal/mykafka"
)

type CartHandler struct {
	DB        *gorm.DB
	Producer  mykafka.Publisher
	JWTSecret []byte
}

// GetCart returns the caller's cart, or an empty placeholder when none
// exists. Absence is not an error.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var cart models.Cart
	if err := h.DB.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"items": []models.CartItem{}, "total_price": 0})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id" validate:"required"`
		Quantity  int  `json:"quantity"   validate:"required,min=1"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var cart models.Cart
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "product not found")
			}
			return err
		}
		// checks only the newly requested quantity, not the cumulative
		// cart quantity
		if req.Quantity > product.Stock {
			return echo.NewHTTPError(http.StatusBadRequest, "not enough stock available")
		}

		if err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
			return err
		}

		var item models.CartItem
		res := tx.Where("cart_id = ? AND product_id = ?", cart.ID, req.ProductID).First(&item)
		switch {
		case res.Error == nil:
			// price stays as captured when the line was first added
			item.Quantity += req.Quantity
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		case errors.Is(res.Error, gorm.ErrRecordNotFound):
			item = models.CartItem{
				CartID:    cart.ID,
				ProductID: req.ProductID,
				Quantity:  req.Quantity,
				Price:     product.Price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		default:
			return res.Error
		}

		return refreshTotal(tx, &cart)
	})
	if txErr != nil {
		return asHTTPError(txErr)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})

	return c.JSON(http.StatusCreated, cart)
}

// UpdateCartItem sets the line quantity for the product in :id absolutely.
func (h *CartHandler) UpdateCartItem(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Quantity int `json:"quantity" validate:"required,min=1"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var cart models.Cart
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "product not found")
			}
			return err
		}
		if req.Quantity > product.Stock {
			return echo.NewHTTPError(http.StatusBadRequest, "not enough stock available")
		}

		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "cart not found")
			}
			return err
		}

		var item models.CartItem
		if err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "item not found in cart")
			}
			return err
		}

		item.Quantity = req.Quantity
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		return refreshTotal(tx, &cart)
	})
	if txErr != nil {
		return asHTTPError(txErr)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_updated",
		"userID":    userID,
		"productID": productID,
		"quantity":  req.Quantity,
	})

	return c.JSON(http.StatusOK, cart)
}

// RemoveFromCart filters the product in :id out of the cart. Removing a line
// that is not there is a silent no-op.
func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var cart models.Cart
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "cart not found")
			}
			return err
		}

		if err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		return refreshTotal(tx, &cart)
	})
	if txErr != nil {
		return asHTTPError(txErr)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	})

	return c.JSON(http.StatusOK, cart)
}
