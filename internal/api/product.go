package api

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Harsh-Singh007/grabit/internal/imagestore"
	"github.com/Harsh-Singh007/grabit/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) Add(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c)
	}
	in, err := productForm(form)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	files, closeAll, err := openImages(form.File["image"])
	if err != nil {
		return badRequest(c)
	}
	defer closeAll()

	product, err := h.productService.Add(c.Request().Context(), in, files)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, "Product added successfully", body{"product": product})
}

func (h *ProductHandler) Update(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c)
	}
	id := firstValue(form, "id")
	if id == "" {
		return fail(c, http.StatusBadRequest, "Product id is required")
	}
	in, err := productForm(form)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	files, closeAll, err := openImages(form.File["image"])
	if err != nil {
		return badRequest(c)
	}
	defer closeAll()

	product, err := h.productService.Update(c.Request().Context(), id, in, files)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "Product updated successfully", body{"product": product})
}

type bulkProductRequest struct {
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Price       float64    `json:"price"`
	OfferPrice  float64    `json:"offerPrice"`
	Description stringList `json:"description"`
	Image       stringList `json:"image"`
	InStock     *bool      `json:"inStock"`
}

func (h *ProductHandler) BulkAdd(c echo.Context) error {
	req := struct {
		Products []bulkProductRequest `json:"products"`
	}{}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	inputs := make([]service.BulkProductInput, 0, len(req.Products))
	for _, p := range req.Products {
		inputs = append(inputs, service.BulkProductInput{
			Name:        p.Name,
			Category:    p.Category,
			Price:       int64(math.Round(p.Price)),
			OfferPrice:  int64(math.Round(p.OfferPrice)),
			Description: p.Description,
			Images:      p.Image,
			InStock:     p.InStock,
		})
	}

	created, err := h.productService.BulkAdd(c.Request().Context(), inputs)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, fmt.Sprintf("%d products added successfully", len(created)), body{"products": created})
}

func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.productService.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "", body{"products": products})
}

func (h *ProductHandler) Categories(c echo.Context) error {
	categories, err := h.productService.Categories(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "", body{"categories": categories})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return fail(c, http.StatusBadRequest, "Product id is required")
	}
	product, err := h.productService.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "", body{"product": product})
}

func (h *ProductHandler) SetStock(c echo.Context) error {
	req := struct {
		ID      string   `json:"id"`
		InStock flexBool `json:"inStock"`
	}{}
	if err := c.Bind(&req); err != nil || req.ID == "" {
		return badRequest(c)
	}

	product, err := h.productService.SetStock(c.Request().Context(), req.ID, bool(req.InStock))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusOK, "Stock Updated", body{"product": product})
}

func (h *ProductHandler) AddReview(c echo.Context) error {
	req := struct {
		ProductID string `json:"productId"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}{}
	if err := c.Bind(&req); err != nil || req.ProductID == "" {
		return badRequest(c)
	}

	product, err := h.productService.AddReview(c.Request().Context(), buyerID(c), req.ProductID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, http.StatusCreated, "Review added", body{"product": product})
}

func productForm(form *multipart.Form) (service.ProductInput, error) {
	price, err := parsePrice(firstValue(form, "price"))
	if err != nil {
		return service.ProductInput{}, errors.New("Invalid price")
	}
	offerPrice, err := parsePrice(firstValue(form, "offerPrice"))
	if err != nil {
		return service.ProductInput{}, errors.New("Invalid offer price")
	}
	return service.ProductInput{
		Name:        firstValue(form, "name"),
		Category:    firstValue(form, "category"),
		Price:       price,
		OfferPrice:  offerPrice,
		Description: form.Value["description"],
	}, nil
}

// parsePrice reads a whole-unit amount. An empty value is zero and left to
// validation.
func parsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return int64(math.Round(v)), nil
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func openImages(headers []*multipart.FileHeader) ([]imagestore.File, func(), error) {
	files := make([]imagestore.File, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		files = append(files, imagestore.File{Name: fh.Filename, Body: f})
	}
	return files, closeAll, nil
}
