package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vruksh/plantshop/internal/handlers"
	"github.com/vruksh/plantshop/internal/models"
	"github.com/vruksh/plantshop/internal/mykafka"
)

type OrderHandler struct {
	DB        *gorm.DB
	Producer  mykafka.Publisher
	JWTSecret []byte
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func asHTTPError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// CreateOrder turns the caller's cart into an immutable order. Stock
// decrement, order creation and cart deletion run in one transaction; the
// decrement is conditional on sufficient stock, so two concurrent placements
// cannot both succeed on the same units.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		ShippingAddress models.ShippingAddress `json:"shipping_address"`
		PaymentMethod   string                 `json:"payment_method" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var order models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusBadRequest, "no items in cart")
			}
			return err
		}
		if len(cart.Items) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "no items in cart")
		}

		orderItems := make([]models.OrderItem, 0, len(cart.Items))
		for _, it := range cart.Items {
			var product models.Product
			if err := tx.First(&product, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusNotFound, "product not found")
				}
				return err
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
				Update("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return echo.NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("not enough stock for %s", product.Name))
			}

			// snapshot: name from the product, price from the cart line
			orderItems = append(orderItems, models.OrderItem{
				ProductID: it.ProductID,
				Name:      product.Name,
				Quantity:  it.Quantity,
				Price:     it.Price,
			})
		}

		order = models.Order{
			UserID:          userID,
			Items:           orderItems,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			TotalPrice:      cart.TotalPrice,
			OrderStatus:     "Pending",
			PaymentStatus:   "Pending",
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cart).Error
	})
	if txErr != nil {
		return asHTTPError(txErr)
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": order.ID,
		"total":   order.TotalPrice,
	})

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var orders []models.Order
	if err := h.DB.Preload("Items").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, orders)
}

// GetOrderByID returns the order only to its owner or to an admin.
func (h *OrderHandler) GetOrderByID(c echo.Context) error {
	userID, role, err := handlers.Claims(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.DB.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if role != "admin" && order.UserID != userID {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	return c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus overwrites each status that is present and non-empty in
// the body; absent fields are left alone. There is no transition validation.
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		OrderStatus   *string `json:"order_status"`
		PaymentStatus *string `json:"payment_status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var order models.Order
	if err := h.DB.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.OrderStatus != nil && *req.OrderStatus != "" {
		order.OrderStatus = *req.OrderStatus
	}
	if req.PaymentStatus != nil && *req.PaymentStatus != "" {
		order.PaymentStatus = *req.PaymentStatus
	}

	if err := h.DB.Save(&order).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":          "order_status_updated",
		"userID":        order.UserID,
		"orderID":       order.ID,
		"orderStatus":   order.OrderStatus,
		"paymentStatus": order.PaymentStatus,
	})

	return c.JSON(http.StatusOK, order)
}
