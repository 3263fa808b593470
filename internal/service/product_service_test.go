package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alfredoT7/io2-back/internal/datamodels/product"
)

func newProductService(t *testing.T) (*ProductService, *memProductRepo) {
	t.Helper()
	repo := newMemProductRepo()
	return NewProductService(repo), repo
}

func shirtInput() *CreateProductInput {
	return &CreateProductInput{
		Title:       "Camisa de lino",
		Price:       120.00,
		Description: "Camisa fresca para el verano",
		Category:    "men's clothing",
		Image:       "https://img.example.com/camisa.jpg",
	}
}

func TestCreateProduct_Defaults(t *testing.T) {
	svc, _ := newProductService(t)

	p, err := svc.Create(context.Background(), 7, shirtInput())
	require.NoError(t, err)
	require.EqualValues(t, 7, p.SellerID)
	require.True(t, p.Active)
	require.EqualValues(t, 1, p.Stock)
	require.Zero(t, p.Rating.Count)
}

func TestCreateProduct_ValidatesFields(t *testing.T) {
	svc, _ := newProductService(t)
	in := &CreateProductInput{Title: "", Price: -1, Description: "", Category: "", Image: "ftp://x"}

	_, err := svc.Create(context.Background(), 7, in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 5)
}

func TestCreateProduct_AcceptsInlineImage(t *testing.T) {
	svc, _ := newProductService(t)
	in := shirtInput()
	in.Image = "data:image/png;base64,iVBORw0KGgo="

	_, err := svc.Create(context.Background(), 7, in)
	require.NoError(t, err)
}

func TestUpdateProduct_OwnerOnly(t *testing.T) {
	svc, _ := newProductService(t)
	p, err := svc.Create(context.Background(), 7, shirtInput())
	require.NoError(t, err)

	in := shirtInput()
	in.Price = 99.90

	_, err = svc.Update(context.Background(), 8, p.ID, in)
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(context.Background(), 7, p.ID, in)
	require.NoError(t, err)
	require.InDelta(t, 99.90, updated.Price, 0.001)
}

func TestDeleteProduct_SoftDelete(t *testing.T) {
	svc, repo := newProductService(t)
	p, err := svc.Create(context.Background(), 7, shirtInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 7, p.ID))

	// 目录里不可见
	_, err = svc.GetByID(context.Background(), p.ID)
	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)

	// 但记录还在（历史订单依赖快照，商品本身只做下架）
	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.False(t, stored.Active)
}

func TestRate_FoldsRunningAverage(t *testing.T) {
	svc, _ := newProductService(t)
	p, err := svc.Create(context.Background(), 7, shirtInput())
	require.NoError(t, err)

	for _, score := range []float64{5, 4, 4} {
		p, err = svc.Rate(context.Background(), p.ID, score)
		require.NoError(t, err)
	}

	// (5+4+4)/3 = 4.333... 四舍五入到一位小数
	require.InDelta(t, 4.3, p.Rating.Rate, 0.001)
	require.EqualValues(t, 3, p.Rating.Count)
}

func TestRate_RejectsOutOfRange(t *testing.T) {
	svc, _ := newProductService(t)
	p, err := svc.Create(context.Background(), 7, shirtInput())
	require.NoError(t, err)

	for _, score := range []float64{0, 5.5, -1} {
		_, err := svc.Rate(context.Background(), p.ID, score)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}
}

func TestListProducts_PaginatesAndFilters(t *testing.T) {
	svc, _ := newProductService(t)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), 7, shirtInput())
		require.NoError(t, err)
	}
	other := shirtInput()
	other.Category = "electronics"
	_, err := svc.Create(context.Background(), 7, other)
	require.NoError(t, err)

	page, err := svc.List(context.Background(), "", 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	require.EqualValues(t, 4, page.Total)
	require.Equal(t, 2, page.TotalPages)

	electronics, err := svc.List(context.Background(), "electronics", 1, 10)
	require.NoError(t, err)
	require.Len(t, electronics.Products, 1)
}

func TestProductView_HidesInternalFields(t *testing.T) {
	p := &product.Product{ID: 1, Title: "x", Price: 2, SellerID: 7, Stock: 5, Active: true}
	v := p.View()
	require.Equal(t, p.ID, v.ID)
	require.Equal(t, p.Title, v.Title)
}
