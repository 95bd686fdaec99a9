package main

import (
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdSendsCartToCartURL(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"PRODUCTS_BASE_URL", "CART_BASE_URL", "LOAD_POLICY"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	catalog := &bookstore{}
	catalogSrv := httptest.NewServer(catalog)
	defer catalogSrv.Close()
	shop := &bookstore{}
	shopSrv := httptest.NewServer(shop)
	defer shopSrv.Close()

	in, input := io.Pipe()
	defer input.Close()
	out := &syncBuffer{}
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--base-url", catalogSrv.URL, "--cart-url", shopSrv.URL, "--log-level", "error"})
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)

	done := make(chan error, 1)
	go func() { done <- cmd.Execute() }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "P100") }, 2*time.Second, 10*time.Millisecond)
	_, err := io.WriteString(input, "a 1\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "added P100") }, 2*time.Second, 10*time.Millisecond)
	_, err = io.WriteString(input, "q\n")
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("browser did not quit")
	}

	shop.mu.Lock()
	assert.Len(t, shop.added, 1)
	shop.mu.Unlock()
	catalog.mu.Lock()
	assert.Empty(t, catalog.added, "cart calls must not reach the products origin")
	catalog.mu.Unlock()
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (stand-in for testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
