package loader

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSubscribeAndUnsubscribe(t *testing.T) {
	s := NewStore()

	var seen []int
	unsubscribe := s.Subscribe(func(p ProductPage) { seen = append(seen, len(p.Data)) })

	s.Replace(ProductPage{Data: []Product{Product(`{"code":"A"}`)}})
	s.Replace(ProductPage{Data: []Product{Product(`{"code":"A"}`), Product(`{"code":"B"}`)}})
	unsubscribe()
	unsubscribe()
	s.Replace(ProductPage{Data: []Product{}})

	assert.Equal(t, []int{1, 2}, seen)
	assert.Empty(t, s.Snapshot().Data)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Replace(ProductPage{
		Data: []Product{Product(`{"code":"A"}`)},
		Meta: map[string]json.RawMessage{"totalPages": json.RawMessage(`3`)},
	})

	snap := s.Snapshot()
	snap.Data[0][2] = 'X'
	snap.Data = append(snap.Data, Product(`{"code":"B"}`))
	snap.Meta["totalPages"] = json.RawMessage(`9`)

	again := s.Snapshot()
	require.Len(t, again.Data, 1)
	assert.JSONEq(t, `{"code":"A"}`, string(again.Data[0]))
	assert.JSONEq(t, `3`, string(again.Meta["totalPages"]))
}

func TestStoreResetDropsSubscribers(t *testing.T) {
	s := NewStore()
	calls := 0
	s.Subscribe(func(ProductPage) { calls++ })
	s.Replace(ProductPage{Data: []Product{Product(`{}`)}})

	s.Reset()
	s.Replace(ProductPage{Data: []Product{Product(`{}`)}})

	assert.Equal(t, 1, calls)
}

func TestProductPageNullDataDecodesEmpty(t *testing.T) {
	var p ProductPage
	require.NoError(t, json.Unmarshal([]byte(`{"data":null,"totalElements":0}`), &p))
	assert.Empty(t, p.Data)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"totalElements":0}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &p))
	assert.Error(t, json.Unmarshal([]byte(`null`), &p))
}

func TestEndpointPageURL(t *testing.T) {
	e, err := NewEndpoint("", "")
	require.NoError(t, err)
	assert.Equal(t, "/api/products?page=1", e.PageURL(1))

	e, err = NewEndpoint("http://localhost:8989/", "api/products")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8989/api/products?page=7", e.PageURL(7))

	_, err = NewEndpoint("localhost:8989", "/api/products")
	assert.Error(t, err)
}
