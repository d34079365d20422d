package order_test

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vruksh/plantshop/internal/handlers/order"
	"github.com/vruksh/plantshop/internal/models"
	"github.com/vruksh/plantshop/internal/testutil"
)

type orderEnv struct {
	DB   *gorm.DB
	H    *order.OrderHandler
	Prod *testutil.FakePublisher
}

func newOrderEnv(t *testing.T) *orderEnv {
	db := testutil.NewTestDB(t)
	prod := &testutil.FakePublisher{}
	return &orderEnv{
		DB:   db,
		H:    &order.OrderHandler{DB: db, Producer: prod, JWTSecret: testutil.JWTSecret},
		Prod: prod,
	}
}

func (env *orderEnv) seedProduct(t *testing.T, name string, price float64, stock int) models.Product {
	t.Helper()
	category := models.Category{Name: name + " category", Description: "d"}
	require.NoError(t, env.DB.Create(&category).Error)
	p := models.Product{Name: name, Description: "d", Price: price, CategoryID: category.ID, Stock: stock}
	require.NoError(t, env.DB.Create(&p).Error)
	return p
}

// seedCart creates a cart for userID with one line per (product, quantity,
// price) triple and the derived total already stored.
func (env *orderEnv) seedCart(t *testing.T, userID uint, lines ...models.CartItem) models.Cart {
	t.Helper()
	total := 0.0
	for _, l := range lines {
		total += float64(l.Quantity) * l.Price
	}
	cart := models.Cart{UserID: userID, Items: lines, TotalPrice: total}
	require.NoError(t, env.DB.Create(&cart).Error)
	return cart
}

func placementBody() map[string]any {
	return map[string]any{
		"shipping_address": map[string]string{
			"address":     "12 Garden Lane",
			"city":        "Pune",
			"postal_code": "411001",
			"country":     "India",
		},
		"payment_method": "COD",
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	env := newOrderEnv(t)
	e := testutil.NewEcho()
	ck := testutil.AuthCookie(t, 1, "customer")

	_, c := testutil.DoJSON(t, e, http.MethodPost, "/api/orders", placementBody(), ck)
	err := env.H.CreateOrder(c)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, err.(*echo.HTTPError).Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateOrderDecrementsStockAndRetiresCart(t *testing.T) {
	env := newOrderEnv(t)
	e := testutil.NewEcho()
	ck := testutil.AuthCookie(t, 1, "customer")
	p := env.seedProduct(t, "Monstera", 10, 5)
	env.seedCart(t, 1, models.CartItem{ProductID: p.ID, Quantity: 2, Price: 10})

	rec, c := testutil.DoJSON(t, e, http.MethodPost, "/api/orders", placementBody(), ck)
	require.NoError(t, env.H.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 20.0, resp.TotalPrice)
	require.Equal(t, "Pending", resp.OrderStatus)
	require.Equal(t, "Pending", resp.PaymentStatus)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "Monstera", resp.Items[0].Name)
	require.Equal(t, 2, resp.Items[0].Quantity)
	require.Equal(t, 10.0, resp.Items[0].Price)

	var updated models.Product
	require.NoError(t, env.DB.First(&updated, p.ID).Error)
	require.Equal(t, 3, updated.Stock)

	var carts int64
	require.NoError(t, env.DB.Model(&models.Cart{}).Count(&carts).Error)
	require.Zero(t, carts)
	var lines int64
	require.NoError(t, env.DB.Model(&models.CartItem{}).Count(&lines).Error)
	require.Zero(t, lines)

	require.Equal(t, 1, env.Prod.Count())
}

func TestCreateOrderSnapshotsCartPrices(t *testing.T) {
	env := newOrderEnv(t)
	e := testutil.NewEcho()
	ck := testutil.AuthCookie(t, 1, "customer")
	p := env.seedProduct(t, "Monstera", 10, 5)
	env.seedCart(t, 1, models.CartItem{ProductID: p.ID, Quantity: 2, Price: 10})

	// the product got more expensive after the line was added
	require.NoError(t, env.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 99).Error)

	rec, c := testutil.DoJSON(t, e, http.MethodPost, "/api/orders", placementBody(), ck)
	require.NoError(t, env.H.CreateOrder(c))

	var resp models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 10.0, resp.Items[0].Price)
	require.Equal(t, 20.0, resp.TotalPrice)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	env := newOrderEnv(t)
	e := testutil.NewEcho()
	ck := testutil.AuthCookie(t, 1, "customer")
	p := env.seedProduct(t, "Rose Bush", 7, 3)
	env.seedCart(t, 1, models.CartItem{ProductID: p.ID, Quantity: 10, Price: 7})

	_, c := testutil.DoJSON(t, e, http.MethodPost, "/api/orders", placementBody(), ck)
	err := env.H.CreateOrder(c)
	require.Error(t, err)
	he := err.(*echo.HTTPError)
	require.Equal(t, http.StatusBadRequest, he.Code)
	require.Contains(t, he.Message, "Rose Bush")

	// no partial effects
	var updated models.Product
	require.NoError(t, env.DB.First(&updated, p.ID).Error)
	require.Equal(t, 3, updated.Stock)
	var carts int64
	require.NoError(t, env.DB.Model(&models.Cart{}).Count(&carts).Error)
	require.EqualValues(t, 1, carts)
	var orders int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&orders).Error)
	require.Zero(t, orders)
}

func TestCreateOrderRollsBackEarlierDecrements(t *testing.T) {
	env := newOrderEnv(t)
	e := testutil.NewEcho()
	ck := testutil.AuthCookie(t, 1, "customer")
	ok := env.seedProduct(t, "Monstera", 10, 5)
	short := env.seedProduct(t, "Aloe Vera", 4, 1)
	env.seedCart(t, 1,
		models.CartItem{ProductID: ok.ID, Quantity: 2, Price: 10},
		models.CartItem{ProductID: short.ID, Quantity: 3, Price: 4},
	)

	_, c := testutil.DoJSON(t, e, http.MethodPost, "/api/orders", placementBody(), ck)
	err := env.H.CreateOrder(c)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, err.(*echo.HTTPError).Code)

	// the first line's decrement must have been rolled back
	var first models.Product
	require.NoError(t, env.DB.First(&first, ok.ID).Error)
	require.Equal(t, 5, first.Stock)
}

func TestGetOrdersOnlyOwn(t *testing.T) {
	env := newOrderEnv(t)
	e := testutil.NewEcho()

	require.NoError(t, env.DB.Create(&models.Order{UserID: 1, PaymentMethod: "COD", TotalPrice: 5}).Error)
	require.NoError(t, env.DB.Create(&models.Order{UserID: 2, PaymentMethod: "COD", TotalPrice: 9}).Error)

	rec, c := testutil.DoJSON(t, e, http.MethodGet, "/api/orders", nil, testutil.AuthCookie(t, 1, "customer"))
	require.NoError(t, env.H.GetOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, uint(1), resp[0].UserID)
}

func TestGetOrderByIDOwnership(t *testing.T) {
	env := newOrderEnv(t)
	e := testutil.NewEcho()

	o := models.Order{UserID: 1, PaymentMethod: "COD", TotalPrice: 5}
	require.NoError(t, env.DB.Create(&o).Error)
	id := strconv.FormatUint(uint64(o.ID), 10)

	// owner sees it
	rec, c := testutil.DoJSON(t, e, http.MethodGet, "/api/orders/"+id, nil, testutil.AuthCookie(t, 1, "customer"))
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, env.H.GetOrderByID(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// another customer does not
	_, c2 := testutil.DoJSON(t, e, http.MethodGet, "/api/orders/"+id, nil, testutil.AuthCookie(t, 2, "customer"))
	c2.SetParamNames("id")
	c2.SetParamValues(id)
	err := env.H.GetOrderByID(c2)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, err.(*echo.HTTPError).Code)

	// an admin does
	rec3, c3 := testutil.DoJSON(t, e, http.MethodGet, "/api/orders/"+id, nil, testutil.AuthCookie(t, 2, "admin"))
	c3.SetParamNames("id")
	c3.SetParamValues(id)
	require.NoError(t, env.H.GetOrderByID(c3))
	require.Equal(t, http.StatusOK, rec3.Code)
}

func TestGetOrderByIDMissing(t *testing.T) {
	env := newOrderEnv(t)
	e := testutil.NewEcho()

	_, c := testutil.DoJSON(t, e, http.MethodGet, "/api/orders/42", nil, testutil.AuthCookie(t, 1, "customer"))
	c.SetParamNames("id")
	c.SetParamValues("42")
	err := env.H.GetOrderByID(c)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, err.(*echo.HTTPError).Code)
}

func TestUpdateOrderStatusPartial(t *testing.T) {
	env := newOrderEnv(t)
	e := testutil.NewEcho()

	o := models.Order{UserID: 1, PaymentMethod: "COD", TotalPrice: 5, OrderStatus: "Pending", PaymentStatus: "Pending"}
	require.NoError(t, env.DB.Create(&o).Error)
	id := strconv.FormatUint(uint64(o.ID), 10)

	rec, c := testutil.DoJSON(t, e, http.MethodPut, "/api/orders/"+id,
		map[string]any{"order_status": "Shipped"})
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, env.H.UpdateOrderStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Shipped", resp.OrderStatus)
	require.Equal(t, "Pending", resp.PaymentStatus)

	// empty string means "no change", not "clear"
	rec2, c2 := testutil.DoJSON(t, e, http.MethodPut, "/api/orders/"+id,
		map[string]any{"order_status": "", "payment_status": "Paid"})
	c2.SetParamNames("id")
	c2.SetParamValues(id)
	require.NoError(t, env.H.UpdateOrderStatus(c2))

	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	require.Equal(t, "Shipped", resp.OrderStatus)
	require.Equal(t, "Paid", resp.PaymentStatus)
}

func TestUpdateOrderStatusMissing(t *testing.T) {
	env := newOrderEnv(t)
	e := testutil.NewEcho()

	_, c := testutil.DoJSON(t, e, http.MethodPut, "/api/orders/7",
		map[string]any{"order_status": "Shipped"})
	c.SetParamNames("id")
	c.SetParamValues("7")
	err := env.H.UpdateOrderStatus(c)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, err.(*echo.HTTPError).Code)
}
