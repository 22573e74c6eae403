package viewmodel

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/shelflife/internal/apperr"
	"github.com/vbonduro/shelflife/internal/domain"
	"github.com/vbonduro/shelflife/internal/validation"
)

func names(products []*domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestProductList_LoadAndSort(t *testing.T) {
	bread := product("bread", 3*day)
	apple := product("Apple", 10*day)
	milk := product("milk", day)
	apple.Quantity = 5
	milk.Quantity = 2
	bread.Category = domain.CategoryBakery
	apple.Category = domain.CategoryFruit
	repo := newFakeRepo(bread, apple, milk)
	c := NewProductListController(repo, nil, nil, testOpts(&sleepRecorder{})...)

	c.Load(context.Background())
	require.Nil(t, c.Err())
	assert.Equal(t, []string{"Apple", "bread", "milk"}, names(c.Products()))

	c.SetSort(SortByExpiration)
	assert.Equal(t, []string{"milk", "bread", "Apple"}, names(c.Products()))

	c.SetSort(SortByQuantity)
	assert.Equal(t, []string{"Apple", "milk", "bread"}, names(c.Products()))

	c.SetSort(SortByCategory)
	assert.Equal(t, []string{"bread", "milk", "Apple"}, names(c.Products()))
	assert.Equal(t, SortByCategory, c.Sort())
}

func TestProductList_Search(t *testing.T) {
	repo := newFakeRepo(product("Milk", day), product("Eggs", day))
	c := NewProductListController(repo, nil, nil, testOpts(&sleepRecorder{})...)

	c.Search(context.Background(), "Eggs")
	assert.Equal(t, []string{"Eggs"}, names(c.Products()))

	c.Refresh(context.Background())
	assert.Equal(t, 2, repo.Calls("Search"))

	c.Load(context.Background())
	assert.Len(t, c.Products(), 2)
	assert.Equal(t, 1, repo.Calls("List"))
}

func TestProductList_LoadFailureKeepsCache(t *testing.T) {
	repo := newFakeRepo(product("Milk", day))
	c := NewProductListController(repo, nil, nil, testOpts(&sleepRecorder{})...)
	c.Load(context.Background())

	repo.failNext("List", apperr.StoreError("locked"))
	c.Load(context.Background())

	assert.True(t, apperr.Equal(apperr.StoreError("locked"), c.Err()))
	assert.Len(t, c.Products(), 1)
}

func TestProductList_Delete(t *testing.T) {
	milk := product("Milk", day)
	repo := newFakeRepo(milk, product("Eggs", day))
	sched := &mockScheduler{}
	sched.On("Remove", mock.Anything, milk.ID).Return(apperr.New(apperr.SchedulingFail)).Once()
	c := NewProductListController(repo, sched, nil, testOpts(&sleepRecorder{})...)
	c.Load(context.Background())

	c.Delete(context.Background(), milk)

	assert.Nil(t, c.Err())
	assert.Equal(t, []string{"Eggs"}, names(c.Products()))
	sched.AssertExpectations(t)
}

func TestProductList_ReloadsOnChange(t *testing.T) {
	repo := newFakeRepo()
	feed := &manualFeed{}
	c := NewProductListController(repo, nil, feed, testOpts(&sleepRecorder{})...)
	defer c.Close()

	_, err := repo.Add(context.Background(), product("Milk", day))
	require.NoError(t, err)
	feed.fire()

	assert.Eventually(t, func() bool { return len(c.Products()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestParseSortOrder(t *testing.T) {
	o, err := ParseSortOrder(" Expiration ")
	require.NoError(t, err)
	assert.Equal(t, SortByExpiration, o)

	_, err = ParseSortOrder("color")
	assert.Error(t, err)
}

func validForm() validation.Form {
	return validation.Form{
		Name:           "Milk",
		Quantity:       "1,5",
		Unit:           "l",
		Category:       domain.CategoryDairy,
		Location:       domain.LocationFridge,
		ExpirationDate: fixedNow.Add(5 * day),
		LotNumber:      "L-42",
	}
}

func TestAddProduct_Save(t *testing.T) {
	repo := newFakeRepo()
	sched := &mockScheduler{}
	sched.On("Schedule", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil).Once()
	c := NewAddProductController(repo, sched, testOpts(&sleepRecorder{})...)
	c.SetForm(validForm())

	c.Save(context.Background())

	require.Nil(t, c.Err())
	saved := c.Saved()
	require.NotNil(t, saved)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, 1.5, saved.Quantity)
	assert.Equal(t, "Milk", saved.Name)
	sched.AssertExpectations(t)
}

func TestAddProduct_ValidationErrorsAreNotRetried(t *testing.T) {
	repo := newFakeRepo()
	sched := &mockScheduler{}
	c := NewAddProductController(repo, sched, testOpts(&sleepRecorder{})...)
	c.SetForm(validation.Form{
		Name:           "",
		Quantity:       "0",
		Category:       domain.CategoryDairy,
		Location:       domain.LocationFridge,
		ExpirationDate: fixedNow.Add(-day),
		LotNumber:      "",
	})

	c.Save(context.Background())

	assert.Len(t, c.Violations(), 4)
	require.NotNil(t, c.Err())
	assert.Equal(t, apperr.KindValidation, c.Err().Kind())
	assert.Nil(t, c.Saved())
	assert.Zero(t, repo.Calls("Add"))
	sched.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestAddProduct_SaveRetriesThenFails(t *testing.T) {
	save := apperr.New(apperr.SaveFailed)
	repo := newFakeRepo()
	repo.failNext("Add", save, save, save, save)
	sched := &mockScheduler{}
	c := NewAddProductController(repo, sched, testOpts(&sleepRecorder{})...)
	c.SetForm(validForm())

	c.Save(context.Background())

	assert.ErrorIs(t, c.Err(), apperr.ErrSaveFailed)
	assert.Equal(t, 4, repo.Calls("Add"))
	assert.Nil(t, c.Saved())
	sched.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestAddProduct_ReminderFailureKeepsSave(t *testing.T) {
	sched := &mockScheduler{}
	sched.On("Schedule", mock.Anything, mock.Anything).Return(apperr.New(apperr.PermissionDeny)).Once()
	c := NewAddProductController(newFakeRepo(), sched, testOpts(&sleepRecorder{})...)
	c.SetForm(validForm())

	c.Save(context.Background())

	assert.Nil(t, c.Err())
	assert.NotNil(t, c.Saved())
}

func TestEditProduct_LoadAndSave(t *testing.T) {
	milk := product("Milk", 2*day)
	repo := newFakeRepo(milk)
	sched := &mockScheduler{}
	sched.On("Schedule", mock.Anything, mock.Anything).Return(nil).Once()
	c := NewEditProductController(repo, sched, testOpts(&sleepRecorder{})...)

	c.Load(context.Background(), milk.ID)
	require.Nil(t, c.Err())
	form := c.Form()
	assert.Equal(t, "Milk", form.Name)
	assert.Equal(t, "1", form.Quantity)

	form.Name = "Oat milk"
	form.ExpirationDate = fixedNow.Add(9 * day)
	c.SetForm(form)
	c.Save(context.Background())

	require.Nil(t, c.Err())
	saved := c.Saved()
	require.NotNil(t, saved)
	assert.Equal(t, milk.ID, saved.ID)
	assert.Equal(t, milk.ArrivalDate, saved.ArrivalDate)
	assert.Equal(t, "Oat milk", saved.Name)
	sched.AssertExpectations(t)
}

func TestEditProduct_LoadNotFound(t *testing.T) {
	repo := newFakeRepo()
	c := NewEditProductController(repo, &mockScheduler{}, testOpts(&sleepRecorder{})...)

	c.Load(context.Background(), uuid.New())

	assert.ErrorIs(t, c.Err(), apperr.ErrNotFound)
	assert.Equal(t, 1, repo.Calls("Get"))
	assert.Nil(t, c.Original())
}

func TestEditProduct_SaveWithoutLoad(t *testing.T) {
	c := NewEditProductController(newFakeRepo(), &mockScheduler{}, testOpts(&sleepRecorder{})...)

	c.Save(context.Background())

	assert.ErrorIs(t, c.Err(), apperr.ErrNotFound)
}

func TestEditProduct_InvalidForm(t *testing.T) {
	milk := product("Milk", 2*day)
	repo := newFakeRepo(milk)
	c := NewEditProductController(repo, &mockScheduler{}, testOpts(&sleepRecorder{})...)
	c.Load(context.Background(), milk.ID)

	form := c.Form()
	form.LotNumber = " "
	c.SetForm(form)
	c.Save(context.Background())

	assert.ErrorIs(t, c.Err(), apperr.ErrEmptyLotNumber)
	assert.Zero(t, repo.Calls("Update"))
}
