package aether

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"1.2.3.4","city":"Rome"}`))
	}))
	defer srv.Close()

	rec, err := Resolve(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4", rec.Address)
	assert.Equal(t, "Rome", rec.City)
}

func TestLoadCloudflareCIDRs(t *testing.T) {
	ranges, err := LoadCloudflareCIDRs("")
	require.NoError(t, err)
	assert.NotEmpty(t, ranges["ipv4"])

	_, err = OpenGeoDB("")
	assert.Error(t, err)
}
