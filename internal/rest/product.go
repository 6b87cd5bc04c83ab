package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ravello/business/product"
	"ravello/domain"
	"ravello/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const maxImageSize = 5 << 20

type ProductService interface {
	GetAllProducts(ctx context.Context) ([]domain.ProductListing, error)
	GetProductByID(ctx context.Context, id uint64) (domain.Product, error)
	CreateProduct(ctx context.Context, clientID uint64, in product.ProductInput, image *product.ImageUpload) (domain.Product, error)
}

type ProductHandler struct {
	productService ProductService
	timeout        time.Duration
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		timeout:        10 * time.Second,
	}
}

// absoluteURL turns a stored relative upload path into a URL on the host the
// request came in on.
func absoluteURL(c echo.Context, p *string) *string {
	if p == nil || *p == "" || strings.HasPrefix(*p, "http://") || strings.HasPrefix(*p, "https://") {
		return p
	}
	u := c.Scheme() + "://" + c.Request().Host + *p
	return &u
}

func (h *ProductHandler) GetAllProducts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	products, err := h.productService.GetAllProducts(ctx)
	if err != nil {
		return writeError(c, err)
	}

	for i := range products {
		products[i].ImageURL = absoluteURL(c, products[i].ImageURL)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "successfully get all products",
		Data:    products,
	})
}

func (h *ProductHandler) GetProductByID(c echo.Context) error {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidParam(c, "product id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	p, err := h.productService.GetProductByID(ctx, productID)
	if err != nil {
		return writeError(c, err)
	}
	p.ImageURL = absoluteURL(c, p.ImageURL)

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "successfully get product",
		Data:    p,
	})
}

// CreateProduct reads a multipart form: product_name, description, price,
// stock, category_id and an optional image file.
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	in, msg := productInputFromForm(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, fres.DefaultErrorResponse{
			Success: false,
			Status:  string(domain.KindValidation),
			Message: msg,
		})
	}

	var image *product.ImageUpload
	if fh, err := c.FormFile("image"); err == nil {
		if fh.Size > maxImageSize {
			return c.JSON(http.StatusBadRequest, fres.DefaultErrorResponse{
				Success: false,
				Status:  string(domain.KindValidation),
				Message: "image must not exceed 5MB",
			})
		}

		src, err := fh.Open()
		if err != nil {
			logger.Error("Failed to open uploaded image", err)
			return c.JSON(http.StatusBadRequest, fres.DefaultErrorResponse{
				Success: false,
				Status:  string(domain.KindValidation),
				Message: "invalid image upload",
			})
		}
		defer src.Close()

		image = &product.ImageUpload{Filename: fh.Filename, Content: src}
	} else if !errors.Is(err, http.ErrMissingFile) {
		logger.Error("Failed to read uploaded image", err)
		return c.JSON(http.StatusBadRequest, fres.DefaultErrorResponse{
			Success: false,
			Status:  string(domain.KindValidation),
			Message: "invalid multipart form",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.productService.CreateProduct(ctx, identity.ClientID, in, image)
	if err != nil {
		return writeError(c, err)
	}
	created.ImageURL = absoluteURL(c, created.ImageURL)

	return c.JSON(http.StatusCreated, fres.DefaultSuccessResponse{
		Success: true,
		Message: "product created",
		Data:    created,
	})
}

func productInputFromForm(c echo.Context) (product.ProductInput, string) {
	in := product.ProductInput{
		ProductName: c.FormValue("product_name"),
		Description: c.FormValue("description"),
	}

	if in.ProductName == "" {
		return in, "product_name is required"
	}

	price, err := decimal.NewFromString(c.FormValue("price"))
	if err != nil {
		return in, "price must be a number"
	}
	in.Price = price

	if raw := c.FormValue("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return in, "stock must be an integer"
		}
		in.Stock = stock
	}

	categoryID, err := strconv.ParseUint(c.FormValue("category_id"), 10, 64)
	if err != nil || categoryID == 0 {
		return in, "category_id is required"
	}
	in.CategoryID = categoryID

	return in, ""
}
