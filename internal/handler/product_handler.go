package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/service"
	"go.uber.org/zap"
)

type ProductHandler struct {
	svc service.ProductService
	log *zap.Logger
}

func NewProductHandler(svc service.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, log: log}
}

type ProductResponse struct {
	ID              uint64 `json:"id"`
	SellerUID       string `json:"sellerUid"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           string `json:"price"`
	StockQuantity   int    `json:"stockQuantity"`
	IsActive        bool   `json:"isActive"`
	AllowBargaining bool   `json:"allowBargaining"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int64             `json:"total"`
}

func toProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		SellerUID:       p.SellerUID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           money(p.Price),
		StockQuantity:   p.StockQuantity,
		IsActive:        p.IsActive,
		AllowBargaining: p.AllowBargaining,
		CreatedAt:       formatTime(p.CreatedAt),
		UpdatedAt:       formatTime(p.UpdatedAt),
	}
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *ProductHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	products, total, err := h.svc.List(c.Request().Context(), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	resp := ProductListResponse{
		Products: make([]ProductResponse, 0, len(products)),
		Total:    total,
	}
	for i := range products {
		resp.Products = append(resp.Products, toProductResponse(&products[i]))
	}
	return c.JSON(http.StatusOK, resp)
}
