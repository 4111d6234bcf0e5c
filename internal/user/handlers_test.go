package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-gerai/internal/checkout"
	"github.com/noah-isme/backend-gerai/internal/common"
)

type fakeStore struct {
	byID map[uuid.UUID]checkout.Address
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: make(map[uuid.UUID]checkout.Address)}
}

func (f *fakeStore) ListByUser(_ context.Context, userID uuid.UUID) ([]checkout.Address, error) {
	var out []checkout.Address
	for _, a := range f.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id, userID uuid.UUID) (checkout.Address, error) {
	a, ok := f.byID[id]
	if !ok || a.UserID != userID {
		return checkout.Address{}, checkout.ErrAddressNotFound
	}
	return a, nil
}

func (f *fakeStore) Create(_ context.Context, a checkout.Address) (checkout.Address, error) {
	f.byID[a.ID] = a
	return a, nil
}

func (f *fakeStore) Update(_ context.Context, a checkout.Address) (checkout.Address, error) {
	existing, ok := f.byID[a.ID]
	if !ok || existing.UserID != a.UserID {
		return checkout.Address{}, checkout.ErrAddressNotFound
	}
	f.byID[a.ID] = a
	return a, nil
}

func (f *fakeStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	a, ok := f.byID[id]
	if !ok || a.UserID != userID {
		return checkout.ErrAddressNotFound
	}
	delete(f.byID, id)
	return nil
}

func authedRequest(method, target, body, userID string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(common.WithUserID(req.Context(), userID))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateAndListAddresses(t *testing.T) {
	store := newFakeStore()
	handler := &Handler{Service: &Service{Store: store}}
	userID := uuid.NewString()

	body := `{"receiver_name":"Budi","phone":"0812","city":"Bandung","postal_code":"40111","address_line":"Jl. Riau 1"}`
	rec := httptest.NewRecorder()
	handler.Create(rec, authedRequest(http.MethodPost, "/users/me/addresses", body, userID))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.List(rec, authedRequest(http.MethodGet, "/users/me/addresses", "", userID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Jl. Riau 1")
}

func TestCreateAddressValidation(t *testing.T) {
	handler := &Handler{Service: &Service{Store: newFakeStore()}}
	rec := httptest.NewRecorder()
	handler.Create(rec, authedRequest(http.MethodPost, "/users/me/addresses", `{"city":"Bandung"}`, uuid.NewString()))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "receiver_name")
}

func TestUpdateAddressScopedToOwner(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	addr, err := (&Service{Store: store}).Create(context.Background(), owner, AddressInput{
		ReceiverName: "Budi", Phone: "0812", AddressLine: "Jl. Riau 1",
	})
	require.NoError(t, err)

	handler := &Handler{Service: &Service{Store: store}}
	body := `{"receiver_name":"Siti","phone":"0813","address_line":"Jl. Dago 2"}`
	req := authedRequest(http.MethodPatch, "/users/me/addresses/"+addr.ID.String(), body, uuid.NewString())
	rec := httptest.NewRecorder()
	handler.Update(rec, withURLParam(req, "addressID", addr.ID.String()))
	require.Equal(t, http.StatusNotFound, rec.Code)

	req = authedRequest(http.MethodPatch, "/users/me/addresses/"+addr.ID.String(), body, owner.String())
	rec = httptest.NewRecorder()
	handler.Update(rec, withURLParam(req, "addressID", addr.ID.String()))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Siti")
}

func TestDeleteAddress(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	addr, err := (&Service{Store: store}).Create(context.Background(), owner, AddressInput{
		ReceiverName: "Budi", Phone: "0812", AddressLine: "Jl. Riau 1",
	})
	require.NoError(t, err)

	handler := &Handler{Service: &Service{Store: store}}
	req := authedRequest(http.MethodDelete, "/users/me/addresses/"+addr.ID.String(), "", owner.String())
	rec := httptest.NewRecorder()
	handler.Delete(rec, withURLParam(req, "addressID", addr.ID.String()))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	req = authedRequest(http.MethodDelete, "/users/me/addresses/"+addr.ID.String(), "", owner.String())
	handler.Delete(rec, withURLParam(req, "addressID", addr.ID.String()))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
