package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vruksh/plantshop/internal/models"
)

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// refreshTotal reloads the cart's lines and persists the derived total so the
// stored aggregate always equals the sum of quantity times captured price.
func refreshTotal(tx *gorm.DB, cart *models.Cart) error {
	var items []models.CartItem
	if err := tx.Where("cart_id = ?", cart.ID).Order("id ASC").Find(&items).Error; err != nil {
		return err
	}
	total := 0.0
	for _, it := range items {
		total += float64(it.Quantity) * it.Price
	}
	cart.Items = items
	cart.TotalPrice = total
	return tx.Model(&models.Cart{}).Where("id = ?", cart.ID).Update("total_price", total).Error
}

// asHTTPError keeps echo errors raised inside a gorm transaction intact
// instead of collapsing them to 500.
func asHTTPError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
