//go:build !integration

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ravello/business/product"
	"ravello/domain"
	"ravello/internal/middleware"
	"ravello/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	placed  domain.PlaceOrderInput
	err     error
	updates []domain.OrderStatus
}

func (f *fakeOrders) PlaceOrder(ctx context.Context, in domain.PlaceOrderInput) (domain.PlacedOrder, error) {
	f.placed = in
	if f.err != nil {
		return domain.PlacedOrder{}, f.err
	}
	return domain.PlacedOrder{Order: domain.Order{OrderID: 10, ClientID: in.ClientID}}, nil
}

func (f *fakeOrders) UpdateFulfillment(ctx context.Context, orderID, storeID uint64, status domain.OrderStatus) (domain.FulfillmentUpdate, error) {
	f.updates = append(f.updates, status)
	return domain.FulfillmentUpdate{OrderID: orderID, StoreID: storeID, NewStatus: status, Changed: true}, nil
}

func (f *fakeOrders) ListOrderDetails(ctx context.Context, clientID uint64) ([]domain.OrderDetailView, error) {
	return []domain.OrderDetailView{}, nil
}

func (f *fakeOrders) PreviewPrice(ctx context.Context, productID uint64, quantity int) (domain.PricePreview, error) {
	return domain.PricePreview{ProductID: productID, Quantity: quantity}, nil
}

type fakeStores map[uint64]domain.Store

func (f fakeStores) ResolveOwnedStore(ctx context.Context, clientID uint64) (domain.Store, error) {
	s, ok := f[clientID]
	if !ok {
		return domain.Store{}, domain.NewAuthorizationError("access denied: store not found")
	}
	return s, nil
}

type fakeProducts struct {
	in        product.ProductInput
	imageName string
	imageBody string
}

func (f *fakeProducts) GetAllProducts(ctx context.Context) ([]domain.ProductListing, error) {
	img := "/uploads/a.png"
	return []domain.ProductListing{{ProductID: 1, ImageURL: &img}, {ProductID: 2}}, nil
}

func (f *fakeProducts) GetProductByID(ctx context.Context, id uint64) (domain.Product, error) {
	return domain.Product{}, domain.NewNotFoundError("product not found")
}

func (f *fakeProducts) CreateProduct(ctx context.Context, clientID uint64, in product.ProductInput, image *product.ImageUpload) (domain.Product, error) {
	f.in = in
	p := domain.Product{ProductID: 3, ProductName: in.ProductName, Price: in.Price}
	if image != nil {
		f.imageName = image.Filename
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(image.Content); err != nil {
			return domain.Product{}, err
		}
		f.imageBody = buf.String()
		path := "/uploads/x.png"
		p.ImageURL = &path
	}
	return p, nil
}

type testServer struct {
	e      *echo.Echo
	issuer *utils.TokenIssuer
	orders *fakeOrders
	prods  *fakeProducts
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	issuer := utils.NewTokenIssuer("secret", time.Hour)
	orders := &fakeOrders{}
	prods := &fakeProducts{}
	stores := fakeStores{1: {StoreID: 4, ClientID: 1}}

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	auth := middleware.AuthMiddleware(issuer)

	oh := NewOrdersHandler(orders)
	ph := NewProductHandler(prods)
	e.POST("/orders", oh.PlaceOrder, auth)
	e.PUT("/stores/orders/:order_id/status", oh.UpdateStatus, auth, middleware.RequireStoreOwner(stores))
	e.GET("/products", ph.GetAllProducts)
	e.GET("/products/:id", ph.GetProductByID)
	e.POST("/products", ph.CreateProduct, auth)

	return testServer{e: e, issuer: issuer, orders: orders, prods: prods}
}

func (s testServer) token(t *testing.T, clientID uint64) string {
	t.Helper()
	tok, err := s.issuer.GenerateJWT(domain.Identity{ClientID: clientID})
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s testServer) do(req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func jsonRequest(method, target, body, auth string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func TestPlaceOrderHandler(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(jsonRequest(http.MethodPost, "/orders", `{}`, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := s.do(jsonRequest(http.MethodPost, "/orders", `{"items":[],"payment_method":"transfer"}`, s.token(t, 2)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = s.do(jsonRequest(http.MethodPost, "/orders", `{"items":[{"product_id":1,"quantity":0}],"payment_method":"transfer"}`, s.token(t, 2)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(jsonRequest(http.MethodPost, "/orders",
		`{"items":[{"product_id":1,"quantity":2}],"payment_method":"transfer","shipping_address":"Jl. Merdeka 1"}`, s.token(t, 2)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, uint64(2), s.orders.placed.ClientID)
	assert.Equal(t, []domain.OrderItemRequest{{ProductID: 1, Quantity: 2}}, s.orders.placed.Items)
}

func TestPlaceOrderHandler_InsufficientStockNamesProduct(t *testing.T) {
	s := newTestServer(t)
	s.orders.err = domain.NewInsufficientStockError(7, 1)

	rec, body := s.do(jsonRequest(http.MethodPost, "/orders",
		`{"items":[{"product_id":7,"quantity":5}],"payment_method":"transfer"}`, s.token(t, 2)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["status"])

	data, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 7, data["product_id"])
}

func TestPlaceOrderHandler_StorageErrorHidesDetail(t *testing.T) {
	s := newTestServer(t)
	s.orders.err = domain.NewStorageError("failed to save order", assert.AnError)

	rec, body := s.do(jsonRequest(http.MethodPost, "/orders",
		`{"items":[{"product_id":7,"quantity":1}],"payment_method":"transfer"}`, s.token(t, 2)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["message"])
}

func TestUpdateStatusHandler(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(jsonRequest(http.MethodPut, "/stores/orders/5/status", `{"status":"shipped"}`, s.token(t, 2)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, s.orders.updates)

	rec, _ = s.do(jsonRequest(http.MethodPut, "/stores/orders/abc/status", `{"status":"shipped"}`, s.token(t, 1)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := s.do(jsonRequest(http.MethodPut, "/stores/orders/5/status", `{"status":"shipped"}`, s.token(t, 1)))
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 4, data["store_id"])
	assert.Equal(t, []domain.OrderStatus{domain.StatusShipped}, s.orders.updates)
}

func TestProductHandlers(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Host = "shop.test"
	rec, body := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	items := body["data"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "http://shop.test/uploads/a.png", items[0].(map[string]any)["image_url"])
	assert.Nil(t, items[1].(map[string]any)["image_url"])

	rec, body = s.do(httptest.NewRequest(http.MethodGet, "/products/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", body["message"])
}

func TestCreateProductHandler_Multipart(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("product_name", "Kopi"))
	require.NoError(t, w.WriteField("price", "45000.50"))
	require.NoError(t, w.WriteField("stock", "3"))
	require.NoError(t, w.WriteField("category_id", "2"))
	fw, err := w.CreateFormFile("image", "kopi.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/products", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set("Authorization", s.token(t, 1))
	req.Host = "shop.test"

	rec, body := s.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decimal.RequireFromString("45000.50").Equal(s.prods.in.Price))
	assert.Equal(t, 3, s.prods.in.Stock)
	assert.Equal(t, uint64(2), s.prods.in.CategoryID)
	assert.Equal(t, "kopi.png", s.prods.imageName)
	assert.Equal(t, "png-bytes", s.prods.imageBody)
	assert.Equal(t, "http://shop.test/uploads/x.png", body["data"].(map[string]any)["image_url"])
}

func TestCreateProductHandler_RejectsBadPrice(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("product_name", "Kopi"))
	require.NoError(t, w.WriteField("price", "mahal"))
	require.NoError(t, w.WriteField("category_id", "2"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/products", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set("Authorization", s.token(t, 1))

	rec, body := s.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price must be a number", body["message"])
}
