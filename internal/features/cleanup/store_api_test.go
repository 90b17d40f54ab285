package cleanup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

func Test_UninstallPos_SendsBranchAndPosNumber(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/PosMachine/UnInstalledPos", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewStoreApiClient(logger.GetLogger())

	err := client.UninstallPos(context.Background(), server.URL, "B01", "3")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"branchCode": "B01", "posNumber": "3"}, received)
}

func Test_UninstallBranch_ServerError_IsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewStoreApiClient(logger.GetLogger())

	err := client.UninstallBranch(context.Background(), server.URL, "B01")

	assert.ErrorContains(t, err, "status 500")
}

func Test_IsBranchInstalled_DecodesBooleanPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/Branch/GetInstallBranch", r.URL.Path)
		require.Equal(t, "B01", r.URL.Query().Get("branchCode"))
		w.Write([]byte("false"))
	}))
	defer server.Close()

	client := NewStoreApiClient(logger.GetLogger())

	installed, err := client.IsBranchInstalled(context.Background(), server.URL, "B01")

	require.NoError(t, err)
	assert.False(t, installed)
}

func Test_StoreApi_InvalidBaseUrl_IsRejected(t *testing.T) {
	client := NewStoreApiClient(logger.GetLogger())

	err := client.UninstallBranch(context.Background(), "not a url", "B01")

	assert.ErrorContains(t, err, "invalid store API base URL")
}
