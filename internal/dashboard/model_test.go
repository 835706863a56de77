package dashboard

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paaskehare/SevenShift/client"
	"github.com/Paaskehare/SevenShift/client/session"
	"github.com/Paaskehare/SevenShift/internal/fakeapi"
	"github.com/Paaskehare/SevenShift/listing"
)

func testClient(t *testing.T) (*fakeapi.Server, *client.Client) {
	t.Helper()
	backend := fakeapi.New()
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)
	base := ts.URL + "/api"
	sess := session.New(session.NewMemoryStore(), session.NewTokenEndpoint(base, 5*time.Second))
	return backend, client.New(base, sess)
}

func loggedInModel(t *testing.T) Model {
	t.Helper()
	_, c := testClient(t)
	require.NoError(t, c.Session().Login(context.Background(), "admin", "admin"))
	m := New(c)
	t.Cleanup(m.Close)
	require.Equal(t, modeList, m.mode)
	m.Init()
	waitAll(m)
	return m
}

func waitAll(m Model) {
	for _, s := range m.screens {
		s.controller().Wait()
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
		waitAll(m)
	}
	return m
}

func vehicles(m Model) *listing.Controller[client.Vehicle] {
	return m.screens[screenVehicles].(*listScreen[client.Vehicle]).ctl
}

func TestLoginFlow(t *testing.T) {
	_, c := testClient(t)
	m := New(c)
	t.Cleanup(m.Close)
	require.Equal(t, modeLogin, m.mode)
	assert.Contains(t, m.View(), "Username")

	m = press(t, m, "admin", "enter", "admin")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.login.busy)

	next, cmd = m.Update(cmd())
	m = next.(Model)
	require.NotNil(t, cmd, "successful login fetches the current user")
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, screenVehicles, m.active)

	next, _ = m.Update(cmd())
	m = next.(Model)
	require.NotNil(t, m.user)
	assert.Equal(t, "admin", m.user.Username)

	waitAll(m)
	st := vehicles(m).State()
	require.NoError(t, st.Err)
	assert.Equal(t, fakeapi.SeedVehicles, st.TotalCount)
	assert.Contains(t, m.View(), "Page 1/3")
}

func TestLoginFailureShowsMessage(t *testing.T) {
	_, c := testClient(t)
	m := New(c)
	t.Cleanup(m.Close)

	m = press(t, m, "admin", "enter", "wrong")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	next, _ = m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, modeLogin, m.mode)
	assert.NotEmpty(t, m.login.err)
	assert.False(t, m.login.busy)
}

func TestSessionEndedReturnsToLogin(t *testing.T) {
	m := loggedInModel(t)
	m = press(t, m, "tab", "tab")
	require.Equal(t, screenContracts, m.active)

	next, _ := m.Update(sessionEndedMsg{reason: session.ReasonRefreshFailed})
	m = next.(Model)
	assert.Equal(t, modeLogin, m.mode)
	assert.Nil(t, m.user)
	assert.Contains(t, m.View(), "Please sign in again")
}

func TestLogoutKey(t *testing.T) {
	m := loggedInModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	m = next.(Model)
	require.NotNil(t, cmd)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, modeLogin, m.mode)
	assert.Equal(t, "Signed out.", m.notice)
	assert.False(t, m.client.Session().Authenticated())
}

func TestPagingStatusAndSearch(t *testing.T) {
	m := loggedInModel(t)

	m = press(t, m, "n")
	assert.Equal(t, 2, vehicles(m).State().Page)
	m = press(t, m, "p")
	assert.Equal(t, 1, vehicles(m).State().Page)

	m = press(t, m, "n", "s")
	st := vehicles(m).State()
	assert.Equal(t, 1, st.Page, "filter change resets the page")
	assert.Equal(t, client.VehicleStatuses[0], st.Filter("status"))
	assert.Equal(t, 12, st.TotalCount)

	m = press(t, m, "/")
	require.Equal(t, modeSearch, m.mode)
	m = press(t, m, "tesla", "enter")
	assert.Equal(t, modeList, m.mode)
	st = vehicles(m).State()
	assert.Equal(t, "tesla", st.Filter("search"))
	for _, v := range st.Items {
		assert.Contains(t, v.DisplayName, "Tesla")
	}
}

func TestCycleStatusWrapsToAll(t *testing.T) {
	m := loggedInModel(t)
	for range client.VehicleStatuses {
		m = press(t, m, "s")
	}
	assert.Equal(t, client.VehicleStatuses[len(client.VehicleStatuses)-1], vehicles(m).State().Filter("status"))
	m = press(t, m, "s")
	assert.Equal(t, "", vehicles(m).State().Filter("status"))
	assert.Equal(t, fakeapi.SeedVehicles, vehicles(m).State().TotalCount)
}

func TestDetailView(t *testing.T) {
	m := loggedInModel(t)
	m = press(t, m, "down", "enter")
	require.Equal(t, modeDetail, m.mode)
	view := m.View()
	assert.Contains(t, view, "Vehicles #56")
	assert.Contains(t, view, "plate_number")

	m = press(t, m, "esc")
	assert.Equal(t, modeList, m.mode)
}

func TestCatalogDrillDown(t *testing.T) {
	m := loggedInModel(t)
	m = press(t, m, "shift+tab")
	require.Equal(t, screenMakes, m.active)

	// Makes are ordered by name; BMW comes first.
	m = press(t, m, "enter")
	require.Equal(t, screenModels, m.active)
	models := m.screens[screenModels].(*listScreen[client.CatalogModel]).ctl.State()
	assert.Equal(t, "2", models.Filter("make"))
	require.Len(t, models.Items, 2)
	for _, cm := range models.Items {
		assert.EqualValues(t, 2, cm.Make)
	}

	m = press(t, m, "enter", "enter")
	require.Equal(t, screenVariants, m.active)
	assert.True(t, strings.Contains(m.View(), "Catalog > Models > Generations > Variants"))

	m = press(t, m, "esc", "esc", "esc")
	assert.Equal(t, screenMakes, m.active)
	m = press(t, m, "esc")
	assert.Equal(t, screenMakes, m.active)
}
