package fakeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paaskehare/SevenShift/client"
)

type harness struct {
	t   *testing.T
	srv *Server
	ts  *httptest.Server
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	srv := New(opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &harness{t: t, srv: srv, ts: ts}
}

// call sends a JSON request and decodes the response into out when non-nil.
func (h *harness) call(method, path, token string, body, out any) int {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.ts.URL+"/api"+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.ts.Client().Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *harness) login(username string) client.TokenPair {
	h.t.Helper()
	var tp client.TokenPair
	code := h.call(http.MethodPost, "/auth/token/", "", client.LoginRequest{Username: username, Password: username}, &tp)
	require.Equal(h.t, http.StatusOK, code)
	require.NotEmpty(h.t, tp.Access)
	require.NotEmpty(h.t, tp.Refresh)
	return tp
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	tp := h.login("admin")
	var me client.User
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/auth/me/", tp.Access, nil, &me))
	assert.Equal(t, "admin", me.Username)
	assert.Equal(t, "admin", me.Role)

	var detail map[string]string
	code := h.call(http.MethodPost, "/auth/token/", "", client.LoginRequest{Username: "admin", Password: "nope"}, &detail)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "No active account found with the given credentials", detail["detail"])

	var fields map[string][]string
	code = h.call(http.MethodPost, "/auth/token/", "", client.LoginRequest{}, &fields)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "password")
}

func TestRequireAuth(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.call(http.MethodGet, "/vehicles/", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, h.call(http.MethodGet, "/vehicles/", "garbage", nil, nil))

	tp := h.login("viewer")
	// A refresh token is not accepted as an access token.
	assert.Equal(t, http.StatusUnauthorized, h.call(http.MethodGet, "/vehicles/", tp.Refresh, nil, nil))
}

func TestExpiredAccessTokenAndRefresh(t *testing.T) {
	h := newHarness(t)
	tp := h.login("admin")

	h.srv.ExpireAccessTokens()
	var body map[string]string
	require.Equal(t, http.StatusUnauthorized, h.call(http.MethodGet, "/auth/me/", tp.Access, nil, &body))
	assert.Equal(t, "token_not_valid", body["code"])

	var at client.AccessToken
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/auth/token/refresh/", "", client.RefreshRequest{Refresh: tp.Refresh}, &at))
	assert.NotEqual(t, tp.Access, at.Access)
	assert.Empty(t, at.Refresh, "no rotation by default")
	assert.Equal(t, http.StatusOK, h.call(http.MethodGet, "/auth/me/", at.Access, nil, nil))
	assert.EqualValues(t, 1, h.srv.RefreshCalls())

	h.srv.RevokeRefreshTokens()
	require.Equal(t, http.StatusUnauthorized, h.call(http.MethodPost, "/auth/token/refresh/", "", client.RefreshRequest{Refresh: tp.Refresh}, &body))
	assert.Equal(t, "token_not_valid", body["code"])
	assert.EqualValues(t, 2, h.srv.RefreshCalls())
}

func TestRefreshRotation(t *testing.T) {
	h := newHarness(t, WithRefreshRotation(true))
	tp := h.login("sales")

	var at client.AccessToken
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/auth/token/refresh/", "", client.RefreshRequest{Refresh: tp.Refresh}, &at))
	assert.NotEmpty(t, at.Refresh)
	assert.NotEqual(t, tp.Refresh, at.Refresh)
}

func TestTokenExpiryFollowsClock(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var skew atomic.Int64
	clock := func() time.Time { return base.Add(time.Duration(skew.Load())) }
	h := newHarness(t, WithClock(clock), WithAccessTTL(time.Minute))
	tp := h.login("admin")

	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/auth/me/", tp.Access, nil, nil))
	skew.Store(int64(2 * time.Minute))
	assert.Equal(t, http.StatusUnauthorized, h.call(http.MethodGet, "/auth/me/", tp.Access, nil, nil))
}

func TestVehiclePagination(t *testing.T) {
	h := newHarness(t)
	tok := h.login("admin").Access
	require.Equal(t, SeedVehicles, h.srv.VehicleCount())

	var page client.Page[client.Vehicle]
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/vehicles/", tok, nil, &page))
	assert.Equal(t, SeedVehicles, page.Count)
	assert.Len(t, page.Results, defaultPageSize)
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page=2")
	assert.Nil(t, page.Previous)
	// Newest first by default.
	assert.EqualValues(t, SeedVehicles, page.Results[0].ID)

	page = client.Page[client.Vehicle]{}
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/vehicles/?page=3", tok, nil, &page))
	assert.Len(t, page.Results, SeedVehicles-2*defaultPageSize)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)

	var detail map[string]string
	assert.Equal(t, http.StatusNotFound, h.call(http.MethodGet, "/vehicles/?page=4", tok, nil, &detail))
	assert.Equal(t, "Invalid page.", detail["detail"])
	assert.Equal(t, http.StatusNotFound, h.call(http.MethodGet, "/vehicles/?page=abc", tok, nil, nil))

	page = client.Page[client.Vehicle]{}
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/vehicles/?page_size=500", tok, nil, &page))
	assert.Len(t, page.Results, SeedVehicles, "page size is capped at 100")
}

func TestVehicleFilterSearchOrdering(t *testing.T) {
	h := newHarness(t)
	tok := h.login("admin").Access

	var page client.Page[client.Vehicle]
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/vehicles/?status=available", tok, nil, &page))
	assert.Equal(t, 12, page.Count)
	for _, v := range page.Results {
		assert.Equal(t, "available", v.Status)
	}

	page = client.Page[client.Vehicle]{}
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/vehicles/?search=tesla&page_size=100", tok, nil, &page))
	require.NotZero(t, page.Count)
	for _, v := range page.Results {
		assert.Contains(t, v.DisplayName, "Tesla")
	}

	page = client.Page[client.Vehicle]{}
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/vehicles/?ordering=-price&page_size=3", tok, nil, &page))
	require.Len(t, page.Results, 3)
	assert.EqualValues(t, SeedVehicles, page.Results[0].ID)
	assert.EqualValues(t, SeedVehicles-1, page.Results[1].ID)

	page = client.Page[client.Vehicle]{}
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/vehicles/?make=3&status=nope", tok, nil, &page))
	assert.Zero(t, page.Count)
	assert.Empty(t, page.Results)
}

func TestVehicleWrites(t *testing.T) {
	h := newHarness(t)
	tok := h.login("admin").Access

	var fields map[string][]string
	require.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, "/vehicles/", tok, client.VehicleInput{Status: ptr("sold")}, &fields))
	assert.Equal(t, []string{"This field is required."}, fields["make"])
	assert.Contains(t, fields, "status")

	fields = nil
	dup := client.VehicleInput{Make: ptr(int64(1)), VIN: ptr("WSS00000000000001")}
	require.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, "/vehicles/", tok, dup, &fields))
	assert.Equal(t, []string{"vehicle with this vin already exists."}, fields["vin"])

	var created client.Vehicle
	in := client.VehicleInput{Make: ptr(int64(1)), CarModel: ptr(int64(1)), Trim: ptr("Style"), Year: ptr(2024)}
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/vehicles/", tok, in, &created))
	assert.EqualValues(t, SeedVehicles+1, created.ID)
	assert.Equal(t, "available", created.Status)
	assert.Equal(t, "Volkswagen Golf Style", created.DisplayName)
	assert.True(t, created.IsActive)

	var patched client.Vehicle
	require.Equal(t, http.StatusOK, h.call(http.MethodPatch, "/vehicles/58/", tok, client.VehicleInput{Status: ptr("leased")}, &patched))
	assert.Equal(t, "leased", patched.Status)
	assert.Equal(t, 2024, *patched.Year)

	assert.Equal(t, http.StatusNoContent, h.call(http.MethodDelete, "/vehicles/58/", tok, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.call(http.MethodGet, "/vehicles/58/", tok, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.call(http.MethodDelete, "/vehicles/58/", tok, nil, nil))
}

func TestOfferRequiresVehicleOrVariant(t *testing.T) {
	h := newHarness(t)
	tok := h.login("sales").Access

	var fields map[string][]string
	in := client.OfferInput{MonthlyRate: ptr("3999.00"), DurationMonths: ptr(36)}
	require.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, "/leasing/offers/", tok, in, &fields))
	assert.Equal(t, []string{"An offer must reference either a fleet vehicle or a catalog variant."}, fields["non_field_errors"])

	var created client.LeasingOffer
	in.Variant = ptr(int64(2))
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/leasing/offers/", tok, in, &created))
	assert.Equal(t, "draft", created.Status)
	require.NotNil(t, created.CreatedBy)
	assert.EqualValues(t, 3, *created.CreatedBy)
}

func TestContractDates(t *testing.T) {
	h := newHarness(t)
	tok := h.login("manager").Access

	in := client.ContractInput{
		Offer:          ptr(int64(1)),
		Vehicle:        ptr(int64(1)),
		Customer:       ptr(int64(4)),
		MonthlyRate:    ptr("2999.00"),
		DurationMonths: ptr(12),
		StartDate:      ptr("2025-06-01"),
		EndDate:        ptr("2025-05-01"),
	}
	var fields map[string][]string
	require.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, "/leasing/contracts/", tok, in, &fields))
	assert.Equal(t, []string{"end_date must be after start_date."}, fields["non_field_errors"])

	in.EndDate = ptr("2026-06-01")
	var created client.LeasingContract
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/leasing/contracts/", tok, in, &created))
	assert.Equal(t, "pending", created.Status)

	var page client.Page[client.LeasingContract]
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/leasing/contracts/?customer=4", tok, nil, &page))
	assert.Equal(t, SeedContracts/2+1, page.Count)
}

func TestCatalogDrillDown(t *testing.T) {
	h := newHarness(t)
	tok := h.login("viewer").Access

	var makes client.Page[client.CatalogMake]
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/catalog/makes/?country=Germany", tok, nil, &makes))
	require.Equal(t, 2, makes.Count)
	assert.Equal(t, "BMW", makes.Results[0].Name)

	var models client.Page[client.CatalogModel]
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/catalog/models/?make=3", tok, nil, &models))
	require.Equal(t, 2, models.Count)
	assert.Equal(t, "Model 3", models.Results[0].Name)

	var gens client.Page[client.CatalogGeneration]
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/catalog/generations/?car_model=5", tok, nil, &gens))
	require.Equal(t, 1, gens.Count)
	assert.Equal(t, "Highland", *gens.Results[0].Name)

	var variants client.Page[client.CatalogVariant]
	path := "/catalog/variants/?generation=5&fuel_type=electric"
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, path, tok, nil, &variants))
	assert.Equal(t, 2, variants.Count)

	assert.Equal(t, http.StatusMethodNotAllowed, h.call(http.MethodPost, "/catalog/makes/", tok, map[string]string{}, nil))
}

func TestWithoutSeed(t *testing.T) {
	h := newHarness(t, WithoutSeed(), WithAccount("alice", "secret", "sales"))
	assert.Zero(t, h.srv.VehicleCount())

	var tp client.TokenPair
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/auth/token/", "", client.LoginRequest{Username: "alice", Password: "secret"}, &tp))

	var page client.Page[client.Vehicle]
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/vehicles/", tp.Access, nil, &page))
	assert.Zero(t, page.Count)
	assert.NotNil(t, page.Results)
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	var detail map[string]string
	assert.Equal(t, http.StatusNotFound, h.call(http.MethodGet, "/nope/", "", nil, &detail))
	assert.Equal(t, "Not found.", detail["detail"])
}
