package telephony_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zentriq/deskbridge/internal/errors"
	"github.com/zentriq/deskbridge/telephony"
)

func TestContactByPhone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/contacts", r.URL.Path)
		require.Equal(t, "+61400000000", r.URL.Query().Get("number"))
		require.Equal(t, "key-1", r.Header.Get("X-API-Key"))

		_, _ = w.Write([]byte(`{"contacts":[{"id":"ct-5","name":"Jo Smith","number":"+61400000000","email":"jo@example.com"}]}`))
	}))
	defer server.Close()

	client := telephony.NewClient(server.URL, "key-1")

	contact, err := client.ContactByPhone(context.Background(), "+61400000000")
	require.NoError(t, err)
	assert.Equal(t, "Jo Smith", contact.Name)
	assert.Equal(t, "jo@example.com", contact.Email)
}

func TestContactByPhoneUnknownNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"contacts":[]}`))
	}))
	defer server.Close()

	client := telephony.NewClient(server.URL, "key-1")

	_, err := client.ContactByPhone(context.Background(), "+61499999999")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
