package envelope

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarpelesLab/swiftrest/resterror"
)

func TestParse_TokenExpiredClassification(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "token status with extra",
			body: `{"result":"error","token":"invalid_request_token","extra":"token_expired"}`,
		},
		{
			name: "code 401",
			body: `{"result":"error","code":401}`,
		},
		{
			name: "extra alone",
			body: `{"result":"error","extra":"token_expired"}`,
		},
		{
			name: "message mentions token",
			body: `{"result":"error","error":"bad token here"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body), http.StatusOK, "")
			require.Error(t, err)
			assert.True(t, resterror.IsTokenExpired(err), "got %v", err)
		})
	}
}

func TestParse_APIError(t *testing.T) {
	body := `{"result":"error","error":"access denied","code":403,"extra":"missing_right"}`
	_, err := Parse([]byte(body), http.StatusOK, "req-42")
	require.Error(t, err)
	require.True(t, resterror.IsAPI(err))
	assert.Contains(t, err.Error(), "access denied")
	assert.Equal(t, 403, resterror.APICode(err))
	assert.Equal(t, "missing_right", resterror.APIExtra(err))
	assert.Equal(t, "req-42", resterror.RequestID(err))
	assert.True(t, resterror.IsPermissionDenied(err))
}

func TestParse_CaseSensitiveTokenMatch(t *testing.T) {
	// "Token" with a capital must not classify as expiry
	_, err := Parse([]byte(`{"result":"error","error":"Token rejected"}`), http.StatusOK, "")
	require.Error(t, err)
	assert.True(t, resterror.IsAPI(err))
}

func TestParse_Redirect(t *testing.T) {
	_, err := Parse([]byte(`{"result":"redirect","redirect_url":"https://next.example.com"}`), http.StatusOK, "")
	require.True(t, resterror.IsRedirect(err))
	assert.Equal(t, "https://next.example.com", resterror.RedirectURL(err))

	_, err = Parse([]byte(`{"result":"redirect"}`), http.StatusOK, "")
	require.True(t, resterror.IsRedirect(err))
	assert.Equal(t, "", resterror.RedirectURL(err))
}

func TestParse_Success(t *testing.T) {
	body := `{
		"result": "success",
		"data": {"user": {"profile": {"name": "John"}}},
		"paging": {"page_no": 2, "count": 40, "page_max": 4, "results_per_page": 10},
		"access": {"obj-1": {"required": "A", "available": "O"}}
	}`
	env, err := Parse([]byte(body), http.StatusOK, "req-7")
	require.NoError(t, err)
	assert.Equal(t, "req-7", env.RequestID)
	assert.True(t, env.HasData())

	name, ok := env.Get("user/profile/name")
	require.True(t, ok)
	s, _ := name.String()
	assert.Equal(t, "John", s)

	require.NotNil(t, env.Paging)
	assert.Equal(t, 2, env.Paging.PageNo)
	assert.Equal(t, 40, env.Paging.Count)
	assert.Equal(t, 4, env.Paging.PageMax)
	assert.Equal(t, 10, env.Paging.ResultsPerPage)

	require.Contains(t, env.Access, "obj-1")
	assert.Equal(t, "A", env.Access["obj-1"].Required)
	assert.Equal(t, "O", env.Access["obj-1"].Available)
}

func TestParse_SuccessCarriesTokenStatus(t *testing.T) {
	env, err := Parse([]byte(`{"result":"success","token":"valid"}`), http.StatusOK, "")
	require.NoError(t, err)
	assert.Equal(t, "valid", env.Token)

	env, err = Parse([]byte(`{"result":"success"}`), http.StatusOK, "")
	require.NoError(t, err)
	assert.Equal(t, "", env.Token)
}

func TestParse_SuccessWithoutData(t *testing.T) {
	env, err := Parse([]byte(`{"result":"success"}`), http.StatusOK, "")
	require.NoError(t, err)
	assert.False(t, env.HasData())

	_, ok := env.Get("anything")
	assert.False(t, ok)

	var out map[string]any
	derr := env.Decode(&out)
	assert.True(t, resterror.IsNoData(derr))
}

func TestParse_ResultDefaultsToError(t *testing.T) {
	// 2xx object without a result member classifies through the error path
	_, err := Parse([]byte(`{"error":"something odd"}`), http.StatusOK, "")
	require.Error(t, err)
	assert.True(t, resterror.IsAPI(err))

	// non-string result behaves the same
	_, err = Parse([]byte(`{"result":42,"error":"odd"}`), http.StatusOK, "")
	require.Error(t, err)
	assert.True(t, resterror.IsAPI(err))
}

func TestParse_HTTPError(t *testing.T) {
	// unparseable body outside 2xx
	_, err := Parse([]byte("<html>nope</html>"), http.StatusBadGateway, "")
	require.True(t, resterror.IsHTTP(err))
	assert.Equal(t, http.StatusBadGateway, resterror.HTTPStatus(err))

	// empty body outside 2xx
	_, err = Parse(nil, http.StatusServiceUnavailable, "")
	require.True(t, resterror.IsHTTP(err))

	// non-envelope JSON object outside 2xx carries its message
	_, err = Parse([]byte(`{"message":"gateway drained"}`), http.StatusBadGateway, "")
	require.True(t, resterror.IsHTTP(err))
	assert.Contains(t, err.Error(), "gateway drained")
}

func TestParse_InvalidResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "plain text", body: "hello"},
		{name: "JSON array", body: `[1,2,3]`},
		{name: "JSON scalar", body: `"ok"`},
		{name: "empty", body: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body), http.StatusOK, "")
			assert.True(t, resterror.IsInvalidResponse(err), "got %v", err)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", ErrorMessage([]byte(`{"error":"boom"}`)))
	assert.Equal(t, "oops", ErrorMessage([]byte(`{"message":"oops"}`)))
	assert.Equal(t, "", ErrorMessage([]byte("not json")))
	assert.Equal(t, "", ErrorMessage([]byte(`[1]`)))
}
