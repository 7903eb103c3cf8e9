package request

import (
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJsonReq(t *testing.T) {
	buf, err := ToJsonReq(map[string]string{"event": "batch.completed"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"batch.completed"}`, buf.String())

	_, err = ToJsonReq(make(chan int))
	assert.Error(t, err)
}

func TestCall(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://hooks.example.test/ok", func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		return httpmock.NewStringResponse(http.StatusOK, `{"received":true}`), nil
	})
	httpmock.RegisterResponder(http.MethodPost, "https://hooks.example.test/text",
		httpmock.NewStringResponder(http.StatusOK, "ok"))
	httpmock.RegisterResponder(http.MethodPost, "https://hooks.example.test/fail",
		httpmock.NewStringResponder(http.StatusInternalServerError, "down"))

	payload, err := ToJsonReq(map[string]string{"a": "b"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, "https://hooks.example.test/ok", payload)
	require.NoError(t, err)

	var got struct {
		Received bool `json:"received"`
	}
	_, err = Call(req, &got)
	require.NoError(t, err)
	assert.True(t, got.Received)

	req, _ = http.NewRequest(http.MethodPost, "https://hooks.example.test/text", nil)
	_, err = Call(req, &got)
	assert.NoError(t, err)

	req, _ = http.NewRequest(http.MethodPost, "https://hooks.example.test/fail", nil)
	_, err = Call(req, nil)
	assert.EqualError(t, err, "request to hooks.example.test failed with status 500: down")
}
