package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/batsuburgeru/we-support-wms-backend/internal/shared/storage"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/google/uuid"
)

// CatalogService covers products, categories and the read-only stock
// transaction view. Plain CRUD, no workflow invariants.
type CatalogService struct {
	productRepo *repository.ProductRepository
	store       *storage.MinioStorage
}

func NewCatalogService(productRepo *repository.ProductRepository, store *storage.MinioStorage) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		store:       store,
	}
}

type CreateProductRequest struct {
	Name       string  `json:"name" binding:"required"`
	CategoryID *string `json:"category_id"`
	UnitPrice  float64 `json:"unit_price"`
	Stock      int     `json:"stock"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*entity.Product, error) {
	if req.CategoryID != nil {
		if _, err := s.productRepo.FindCategoryByID(ctx, *req.CategoryID); err != nil {
			return nil, fmt.Errorf("%w: unknown category %s", ErrValidation, *req.CategoryID)
		}
	}

	product := &entity.Product{
		ID:         uuid.New().String(),
		Name:       req.Name,
		CategoryID: req.CategoryID,
		UnitPrice:  req.UnitPrice,
		Stock:      req.Stock,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

type UpdateProductRequest struct {
	Name       *string  `json:"name"`
	CategoryID *string  `json:"category_id"`
	UnitPrice  *float64 `json:"unit_price"`
	Stock      *int     `json:"stock"`
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, req *UpdateProductRequest) (*entity.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.CategoryID != nil {
		if _, err := s.productRepo.FindCategoryByID(ctx, *req.CategoryID); err != nil {
			return nil, fmt.Errorf("%w: unknown category %s", ErrValidation, *req.CategoryID)
		}
		product.CategoryID = req.CategoryID
	}
	if req.UnitPrice != nil {
		product.UnitPrice = *req.UnitPrice
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.productRepo.Delete(ctx, id)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Product, int64, error) {
	return s.productRepo.FindAll(ctx, page, pageSize, filters)
}

// UploadProductImage stores the image in the object store and records its
// URL on the product.
func (s *CatalogService) UploadProductImage(ctx context.Context, productID, filename, contentType string, reader io.Reader, size int64) (*entity.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		return nil, fmt.Errorf("%w: unsupported image type %s", ErrValidation, ext)
	}

	objectName := fmt.Sprintf("products/%s/%s%s", productID, uuid.New().String(), ext)
	url, err := s.store.Upload(ctx, objectName, reader, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	product.ImageURL = url
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save image url: %w", err)
	}
	return product, nil
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *CatalogService) CreateCategory(ctx context.Context, req *CategoryRequest) (*entity.Category, error) {
	category := &entity.Category{
		ID:   uuid.New().String(),
		Name: req.Name,
	}
	if err := s.productRepo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, req *CategoryRequest) (*entity.Category, error) {
	category, err := s.productRepo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = req.Name
	if err := s.productRepo.UpdateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.productRepo.DeleteCategory(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]entity.Category, error) {
	return s.productRepo.FindAllCategories(ctx)
}

func (s *CatalogService) ListStockTransactions(ctx context.Context, page, pageSize int, productID string) ([]entity.StockTransaction, int64, error) {
	return s.productRepo.FindStockTransactions(ctx, page, pageSize, productID)
}
