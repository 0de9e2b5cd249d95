package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out := renderTemplate("Your order {order_id} has been confirmed.", map[string]string{"order_id": "ord-7"})
	assert.Equal(t, "Your order ord-7 has been confirmed.", out)

	// Unknown tokens are left intact.
	out = renderTemplate("Code: {code}", nil)
	assert.Equal(t, "Code: {code}", out)
}

func TestSend_LogOnlyMode(t *testing.T) {
	c := NewSMSClient("", "")

	msg, err := c.Send(context.Background(), "+98912", "order_confirmed", map[string]string{"order_id": "ord-1"})
	require.NoError(t, err)
	assert.Equal(t, "Your order ord-1 has been confirmed. Thank you for shopping with us.", msg)
}

func TestSend_UnknownTemplate(t *testing.T) {
	c := NewSMSClient("", "")

	_, err := c.Send(context.Background(), "+98912", "no_such_template", nil)
	assert.Error(t, err)
}

func TestSend_DispatchesWithAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewSMSClient(srv.URL, "secret-key")
	msg, err := c.Send(context.Background(), "+98912", "otp_code", map[string]string{"code": "1234"})
	require.NoError(t, err)
	assert.Equal(t, "Your verification code is 1234.", msg)
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestSend_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewSMSClient(srv.URL, "")
	_, err := c.Send(context.Background(), "+98912", "otp_code", map[string]string{"code": "1"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses must not be retried")
}

func TestSend_ServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewSMSClient(srv.URL, "")
	msg, err := c.Send(context.Background(), "+98912", "otp_code", map[string]string{"code": "5"})
	require.NoError(t, err)
	assert.Equal(t, "Your verification code is 5.", msg)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestRegisterTemplate(t *testing.T) {
	c := NewSMSClient("", "")
	c.RegisterTemplate("pickup_ready", "Order {order_id} is ready for pickup.")

	msg, err := c.Send(context.Background(), "+98912", "pickup_ready", map[string]string{"order_id": "o-2"})
	require.NoError(t, err)
	assert.Equal(t, "Order o-2 is ready for pickup.", msg)
}
