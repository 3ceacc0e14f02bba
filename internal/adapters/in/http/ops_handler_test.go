package opshttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	opshttp "threadline/internal/adapters/in/http"
	"threadline/internal/application/usecase"
	cartdom "threadline/internal/domain/cart"
	userdom "threadline/internal/domain/user"
	"threadline/internal/platform/schedule"
)

type stubRepo struct {
	stats  cartdom.AbandonmentStats
	resets []string
}

func (r *stubRepo) GetByID(context.Context, string) (*cartdom.Cart, error) { return nil, nil }
func (r *stubRepo) FindAbandoned(context.Context, time.Time, int) ([]*cartdom.Cart, error) {
	return nil, nil
}
func (r *stubRepo) MarkNotified(context.Context, string, time.Time) error { return nil }
func (r *stubRepo) ResetNotificationState(_ context.Context, cartID string) error {
	r.resets = append(r.resets, cartID)
	return nil
}
func (r *stubRepo) AbandonmentStats(context.Context, time.Time) (cartdom.AbandonmentStats, error) {
	return r.stats, nil
}

type stubDirectory struct{}

func (stubDirectory) ResolveProfile(context.Context, string) (*userdom.Profile, error) {
	return nil, nil
}

type stubMailer struct{}

func (stubMailer) SendAbandonmentEmail(context.Context, string, string, []cartdom.CartItem) error {
	return nil
}

func newServer(t *testing.T, repo *stubRepo) (*httptest.Server, *schedule.AbandonmentScheduler) {
	t.Helper()

	uc, err := usecase.NewAbandonmentUsecase(repo, stubDirectory{}, stubMailer{}, cartdom.DefaultAbandonmentPolicy(), usecase.AbandonmentOptions{})
	require.NoError(t, err)

	sched, err := schedule.NewAbandonmentScheduler(uc, schedule.Config{})
	require.NoError(t, err)

	mux := http.NewServeMux()
	opshttp.NewOpsHandler(uc, sched).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, sched
}

func TestOpsHandler_Healthz(t *testing.T) {
	srv, _ := newServer(t, &stubRepo{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOpsHandler_Status(t *testing.T) {
	srv, sched := newServer(t, &stubRepo{})
	require.NoError(t, sched.Start())
	defer sched.Stop()

	resp, err := http.Get(srv.URL + "/ops/abandonment/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st schedule.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.True(t, st.IsRunning)
	assert.False(t, st.IsProcessing)
	assert.NotNil(t, st.NextRun)
}

func TestOpsHandler_Stats(t *testing.T) {
	repo := &stubRepo{stats: cartdom.AbandonmentStats{
		TotalAbandonedCarts:         4,
		TotalNotificationsSent:      6,
		AverageNotificationsPerCart: 1.5,
	}}
	srv, _ := newServer(t, repo)

	resp, err := http.Get(srv.URL + "/ops/abandonment/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got cartdom.AbandonmentStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, repo.stats, got)
}

func TestOpsHandler_Run(t *testing.T) {
	srv, _ := newServer(t, &stubRepo{})

	resp, err := http.Post(srv.URL+"/ops/abandonment/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 0, got["notificationsSent"])
}

func TestOpsHandler_Run_MethodNotAllowed(t *testing.T) {
	srv, _ := newServer(t, &stubRepo{})

	resp, err := http.Get(srv.URL + "/ops/abandonment/run")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestOpsHandler_Reset(t *testing.T) {
	repo := &stubRepo{}
	srv, _ := newServer(t, repo)

	resp, err := http.Post(srv.URL+"/ops/abandonment/reset?cartId=c-42", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"c-42"}, repo.resets)
}

func TestOpsHandler_Reset_MissingCartID(t *testing.T) {
	srv, _ := newServer(t, &stubRepo{})

	resp, err := http.Post(srv.URL+"/ops/abandonment/reset", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
