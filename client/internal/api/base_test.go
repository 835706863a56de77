package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/Paaskehare/SevenShift/client/internal/types"
)

// recordingRequester answers every call with a canned JSON body.
type recordingRequester struct {
	method string
	path   string
	params url.Values
	body   any
	reply  string
	err    error
	calls  int
}

func (r *recordingRequester) Request(_ context.Context, method, path string, params url.Values, body, out any) error {
	r.calls++
	r.method, r.path, r.params, r.body = method, path, params, body
	if r.err != nil {
		return r.err
	}
	if out == nil || r.reply == "" {
		return nil
	}
	return json.Unmarshal([]byte(r.reply), out)
}

func TestList_DecodesEnvelope(t *testing.T) {
	t.Parallel()
	rr := &recordingRequester{reply: `{"count":57,"next":"http://x/api/vehicles/?page=2","previous":null,"results":[{"id":1,"status":"available"},{"id":2,"status":"leased"}]}`}
	params := url.Values{"status": {"available"}, "page": {"1"}}

	page, err := List[types.Vehicle](context.Background(), rr, PathVehicles, params)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if rr.method != http.MethodGet || rr.path != "/vehicles/" {
		t.Fatalf("unexpected call: %s %s", rr.method, rr.path)
	}
	if rr.params.Get("status") != "available" {
		t.Fatalf("params not forwarded: %v", rr.params)
	}
	if page.Count != 57 || len(page.Results) != 2 || page.Results[1].Status != "leased" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Next == nil || page.Previous != nil {
		t.Fatalf("unexpected links: next=%v previous=%v", page.Next, page.Previous)
	}
}

func TestList_NilResultsBecomeEmpty(t *testing.T) {
	t.Parallel()
	rr := &recordingRequester{reply: `{"count":0,"next":null,"previous":null,"results":null}`}
	page, err := List[types.LeasingOffer](context.Background(), rr, PathOffers, nil)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if page.Results == nil {
		t.Fatal("expected empty, non-nil results")
	}
}

func TestGet_DetailPath(t *testing.T) {
	t.Parallel()
	rr := &recordingRequester{reply: `{"id":7,"offer":3,"vehicle":4,"customer":5,"monthly_rate":"499.00","status":"active"}`}
	c, err := Get[types.LeasingContract](context.Background(), rr, PathContracts, 7)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rr.path != "/leasing/contracts/7/" {
		t.Fatalf("unexpected path: %s", rr.path)
	}
	if c.MonthlyRate != "499.00" || c.Status != "active" {
		t.Fatalf("unexpected contract: %+v", c)
	}
}

func TestGet_InvalidIDSkipsRequest(t *testing.T) {
	t.Parallel()
	rr := &recordingRequester{}
	if _, err := Get[types.Vehicle](context.Background(), rr, PathVehicles, 0); err == nil {
		t.Fatal("expected validation error")
	}
	if err := Delete(context.Background(), rr, PathVehicles, -1); err == nil {
		t.Fatal("expected validation error")
	}
	if rr.calls != 0 {
		t.Fatalf("expected no request, got %d", rr.calls)
	}
}

func TestCreateAndPatch_SendBody(t *testing.T) {
	t.Parallel()
	status := "reserved"
	in := types.VehicleInput{Status: &status}

	rr := &recordingRequester{reply: `{"id":9,"status":"reserved"}`}
	v, err := Create[types.Vehicle](context.Background(), rr, PathVehicles, in)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if rr.method != http.MethodPost || rr.path != PathVehicles || v.ID != 9 {
		t.Fatalf("unexpected create: %s %s %+v", rr.method, rr.path, v)
	}

	if _, err := Patch[types.Vehicle](context.Background(), rr, PathVehicles, 9, in); err != nil {
		t.Fatalf("Patch error: %v", err)
	}
	if rr.method != http.MethodPatch || rr.path != "/vehicles/9/" {
		t.Fatalf("unexpected patch: %s %s", rr.method, rr.path)
	}
	b, _ := json.Marshal(rr.body)
	if string(b) != `{"status":"reserved"}` {
		t.Fatalf("nil fields must be omitted, got %s", b)
	}
}

func TestRequesterErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	rr := &recordingRequester{err: boom}
	if _, err := Me(context.Background(), rr); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if rr.path != PathMe {
		t.Fatalf("unexpected path: %s", rr.path)
	}
}
