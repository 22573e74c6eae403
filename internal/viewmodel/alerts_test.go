package viewmodel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/shelflife/internal/apperr"
	"github.com/vbonduro/shelflife/internal/domain"
)

const day = 24 * time.Hour

func newAlertsController(repo *fakeRepo, sched *mockScheduler) *AlertsController {
	return NewAlertsController(repo, sched, nil, DefaultAlertsConfig(), testOpts(&sleepRecorder{})...)
}

func TestLoadAlerts_CountsBothLists(t *testing.T) {
	repo := newFakeRepo()
	repo.expired = []*domain.Product{product("Milk", -2*day), product("Yogurt", -time.Hour)}
	repo.soon = []*domain.Product{product("Cheese", 2*day)}
	c := newAlertsController(repo, &mockScheduler{})

	c.LoadAlerts(context.Background())

	require.Nil(t, c.Err())
	assert.Equal(t, 3, c.TotalAlertsCount())
	assert.True(t, c.HasAlerts())
	assert.Len(t, c.ExpiredProducts(), 2)
	assert.Len(t, c.SoonExpiredProducts(), 1)
	assert.Equal(t, 1, repo.Calls("ListExpired"))
	assert.Equal(t, 1, repo.Calls("ListExpiringWithin"))
}

func TestLoadAlerts_QueriesRunConcurrently(t *testing.T) {
	repo := newFakeRepo()
	repo.expired = []*domain.Product{product("Milk", -day)}
	repo.soon = []*domain.Product{product("Cheese", day)}
	repo.beforeAlertQuery = rendezvous(t, 2)
	c := newAlertsController(repo, &mockScheduler{})

	c.LoadAlerts(context.Background())

	require.Nil(t, c.Err())
	assert.Equal(t, 2, c.TotalAlertsCount())
}

func TestLoadAlerts_ListsAreDisjoint(t *testing.T) {
	both := product("Ham", -time.Hour)
	repo := newFakeRepo()
	repo.expired = []*domain.Product{both}
	repo.soon = []*domain.Product{both, product("Eggs", day)}
	c := newAlertsController(repo, &mockScheduler{})

	c.LoadAlerts(context.Background())

	for _, s := range c.SoonExpiredProducts() {
		for _, e := range c.ExpiredProducts() {
			assert.NotEqual(t, e.ID, s.ID)
		}
	}
	assert.Equal(t, len(c.ExpiredProducts())+len(c.SoonExpiredProducts()), c.TotalAlertsCount())
	assert.Equal(t, 2, c.TotalAlertsCount())
}

func TestLoadAlerts_Empty(t *testing.T) {
	c := newAlertsController(newFakeRepo(), &mockScheduler{})

	c.LoadAlerts(context.Background())

	assert.Nil(t, c.Err())
	assert.Zero(t, c.TotalAlertsCount())
	assert.False(t, c.HasAlerts())
	assert.NotNil(t, c.ExpiredProducts())
}

func TestLoadAlerts_FetchFailureAfterRetries(t *testing.T) {
	fetch := apperr.New(apperr.FetchFailed)
	repo := newFakeRepo()
	repo.failNext("ListExpired", fetch, fetch, fetch, fetch)
	c := newAlertsController(repo, &mockScheduler{})

	c.LoadAlerts(context.Background())

	require.NotNil(t, c.Err())
	assert.ErrorIs(t, c.Err(), apperr.ErrFetchFailed)
	assert.Equal(t, 4, repo.Calls("ListExpired"))
	assert.Equal(t, 4, c.Attempts())
	assert.False(t, c.HasAlerts())
}

func TestLoadAlerts_RecoversAfterTransientFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.soon = []*domain.Product{product("Bread", day)}
	repo.failNext("ListExpiringWithin", apperr.New(apperr.FetchFailed))
	c := newAlertsController(repo, &mockScheduler{})

	c.LoadAlerts(context.Background())

	assert.Nil(t, c.Err())
	assert.Equal(t, 1, c.TotalAlertsCount())
}

func TestDismissAlert_RemovesLocally(t *testing.T) {
	milk := product("Milk", -day)
	cheese := product("Cheese", day)
	repo := newFakeRepo()
	repo.expired = []*domain.Product{milk}
	repo.soon = []*domain.Product{cheese}
	sched := &mockScheduler{}
	sched.On("Remove", mock.Anything, milk.ID).Return(nil).Once()
	c := newAlertsController(repo, sched)
	c.LoadAlerts(context.Background())

	c.DismissAlert(context.Background(), milk)

	assert.Nil(t, c.Err())
	assert.Empty(t, c.ExpiredProducts())
	assert.Equal(t, 1, c.TotalAlertsCount())
	assert.Equal(t, AlertUnknown, c.AlertTypeForProduct(milk))
	sched.AssertExpectations(t)
}

func TestDismissAlert_FailedReminderRemovalKeepsProductHidden(t *testing.T) {
	cheese := product("Cheese", day)
	repo := newFakeRepo()
	repo.soon = []*domain.Product{cheese}
	sched := &mockScheduler{}
	sched.On("Remove", mock.Anything, cheese.ID).Return(apperr.New(apperr.SchedulingFail)).Once()
	c := newAlertsController(repo, sched)
	c.LoadAlerts(context.Background())
	require.Equal(t, 1, c.TotalAlertsCount())

	c.DismissAlert(context.Background(), cheese)

	assert.Empty(t, c.SoonExpiredProducts())
	assert.Empty(t, c.ExpiredProducts())
	require.NotNil(t, c.Err())
	assert.ErrorIs(t, c.Err(), apperr.ErrSchedulingFail)
	sched.AssertExpectations(t)
}

func TestDeleteProduct(t *testing.T) {
	milk := product("Milk", -day)
	repo := newFakeRepo(milk)
	repo.expired = []*domain.Product{milk}
	sched := &mockScheduler{}
	sched.On("Remove", mock.Anything, milk.ID).Return(nil).Once()
	c := newAlertsController(repo, sched)
	c.LoadAlerts(context.Background())

	c.DeleteProduct(context.Background(), milk)

	assert.Nil(t, c.Err())
	assert.Zero(t, c.TotalAlertsCount())
	assert.Equal(t, 1, repo.Calls("Delete"))
	sched.AssertExpectations(t)
}

func TestDeleteProduct_FailureKeepsLists(t *testing.T) {
	milk := product("Milk", -day)
	repo := newFakeRepo(milk)
	repo.expired = []*domain.Product{milk}
	repo.failNext("Delete", apperr.New(apperr.DeleteFailed))
	sched := &mockScheduler{}
	c := newAlertsController(repo, sched)
	c.LoadAlerts(context.Background())

	c.DeleteProduct(context.Background(), milk)

	assert.ErrorIs(t, c.Err(), apperr.ErrDeleteFailed)
	assert.Equal(t, 1, repo.Calls("Delete"))
	assert.Equal(t, AlertExpired, c.AlertTypeForProduct(milk))
	sched.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestAlertTypeForProduct(t *testing.T) {
	milk := product("Milk", -day)
	cheese := product("Cheese", day)
	repo := newFakeRepo()
	repo.expired = []*domain.Product{milk}
	repo.soon = []*domain.Product{cheese}
	c := newAlertsController(repo, &mockScheduler{})
	c.LoadAlerts(context.Background())

	assert.Equal(t, AlertExpired, c.AlertTypeForProduct(milk))
	assert.Equal(t, AlertSoonExpired, c.AlertTypeForProduct(cheese))
	assert.Equal(t, AlertUnknown, c.AlertTypeForProduct(product("Fresh", 30*day)))
}

func TestScheduleNotificationsForUpcomingProducts_FiltersWindow(t *testing.T) {
	past := product("Past", -time.Hour)
	today := product("Today", time.Hour)
	edge := product("Edge", 7*day+time.Hour)
	later := product("Later", 8*day+time.Hour)

	sched := &mockScheduler{}
	sched.On("Schedule", mock.Anything, today).Return(nil).Once()
	sched.On("Schedule", mock.Anything, edge).Return(nil).Once()
	c := newAlertsController(newFakeRepo(), sched)

	err := c.ScheduleNotificationsForUpcomingProducts(context.Background(), []*domain.Product{past, today, edge, later})

	require.NoError(t, err)
	sched.AssertExpectations(t)
	sched.AssertNumberOfCalls(t, "Schedule", 2)
}

func TestScheduleNotificationsForUpcomingProducts_SchedulesConcurrently(t *testing.T) {
	products := []*domain.Product{
		product("A", time.Hour), product("B", day), product("C", 2*day), product("D", 5*day),
	}
	arrive := rendezvous(t, len(products))
	sched := &mockScheduler{}
	sched.On("Schedule", mock.Anything, mock.Anything).Run(func(mock.Arguments) { arrive() }).Return(nil)
	c := newAlertsController(newFakeRepo(), sched)

	require.NoError(t, c.ScheduleNotificationsForUpcomingProducts(context.Background(), products))
	sched.AssertNumberOfCalls(t, "Schedule", len(products))
}

func TestScheduleNotificationsForUpcomingProducts_OneFailureFailsAll(t *testing.T) {
	a := product("A", day)
	b := product("B", 2*day)
	sched := &mockScheduler{}
	sched.On("Schedule", mock.Anything, a).Return(apperr.New(apperr.SchedulingFail)).Once()
	sched.On("Schedule", mock.Anything, b).Return(nil).Once()
	c := newAlertsController(newFakeRepo(), sched)

	err := c.ScheduleNotificationsForUpcomingProducts(context.Background(), []*domain.Product{a, b})

	assert.ErrorIs(t, err, apperr.ErrSchedulingFail)
	// b is still scheduled; nothing is rolled back
	sched.AssertExpectations(t)
}

func TestScheduleNotificationsForUpcomingProducts_CustomThreshold(t *testing.T) {
	p := product("P", 2*day+time.Hour)
	sched := &mockScheduler{}
	c := NewAlertsController(newFakeRepo(), sched, nil, AlertsConfig{SoonExpiringDays: 3, UpcomingDays: 1}, testOpts(&sleepRecorder{})...)

	require.NoError(t, c.ScheduleNotificationsForUpcomingProducts(context.Background(), []*domain.Product{p}))
	sched.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestAlertsController_ReloadsOnChange(t *testing.T) {
	repo := newFakeRepo()
	feed := &manualFeed{}
	c := NewAlertsController(repo, &mockScheduler{}, feed, DefaultAlertsConfig(), testOpts(&sleepRecorder{})...)
	defer c.Close()

	repo.mu.Lock()
	repo.expired = []*domain.Product{product("Milk", -day)}
	repo.mu.Unlock()
	feed.fire()

	assert.Eventually(t, func() bool { return c.TotalAlertsCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAlertsController_CloseStopsReloads(t *testing.T) {
	repo := newFakeRepo()
	feed := &manualFeed{}
	c := NewAlertsController(repo, &mockScheduler{}, feed, DefaultAlertsConfig(), testOpts(&sleepRecorder{})...)
	c.Close()

	feed.fire()

	assert.Zero(t, repo.Calls("ListExpired"))
}

func TestAlertsConfig_ZeroWindowIsToday(t *testing.T) {
	repo := newFakeRepo()
	today := product("Today", time.Hour)
	tomorrow := product("Tomorrow", day+time.Hour)
	sched := &mockScheduler{}
	sched.On("Schedule", mock.Anything, today).Return(nil).Once()
	c := NewAlertsController(repo, sched, nil, AlertsConfig{}, testOpts(&sleepRecorder{})...)

	c.LoadAlerts(context.Background())
	require.NoError(t, c.ScheduleNotificationsForUpcomingProducts(context.Background(), []*domain.Product{today, tomorrow}))

	assert.Equal(t, []int{0}, repo.soonDays)
	sched.AssertExpectations(t)
	sched.AssertNumberOfCalls(t, "Schedule", 1)
}

func TestAlertsConfig_NegativeTakesDefaults(t *testing.T) {
	repo := newFakeRepo()
	c := NewAlertsController(repo, &mockScheduler{}, nil, AlertsConfig{SoonExpiringDays: -1, UpcomingDays: -1}, testOpts(&sleepRecorder{})...)

	c.LoadAlerts(context.Background())

	assert.Equal(t, []int{3}, repo.soonDays)
	assert.Equal(t, DefaultAlertsConfig(), c.cfg)
}
