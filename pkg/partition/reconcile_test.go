package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileUnionsSchemaAndKeepsLast(t *testing.T) {
	p1 := []byte(`{"iid": 1, "x": "alt"}
{"iid": 2, "x": "bleibt"}
`)
	p2 := []byte(`{"iid": 1, "y": 0.7}
`)

	dataset, err := Reconcile([][]byte{p1, p2})
	require.NoError(t, err)

	assert.Equal(t, []string{"iid", "x", "y"}, dataset.Columns)
	require.Len(t, dataset.Rows, 2)

	// iid 1 was re-delivered in p2: keep the later version, x backfilled to null.
	assert.Equal(t, float64(1), dataset.Rows[0]["iid"])
	assert.Nil(t, dataset.Rows[0]["x"])
	assert.Equal(t, 0.7, dataset.Rows[0]["y"])

	assert.Equal(t, float64(2), dataset.Rows[1]["iid"])
	assert.Equal(t, "bleibt", dataset.Rows[1]["x"])
	assert.Nil(t, dataset.Rows[1]["y"])
}

func TestReconcileSinglePartition(t *testing.T) {
	p := []byte(`{"iid": 5, "labels_v1": ["Lob"], "sentiment": 0.4}

`)

	dataset, err := Reconcile([][]byte{p})
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, []interface{}{"Lob"}, dataset.Rows[0]["labels_v1"])
	assert.Equal(t, 0.4, dataset.Rows[0]["sentiment"])
}

func TestReconcileRejectsRowWithoutIID(t *testing.T) {
	_, err := Reconcile([][]byte{[]byte(`{"x": 1}` + "\n")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iid")
}

func TestReconcileRejectsMalformedRow(t *testing.T) {
	_, err := Reconcile([][]byte{[]byte("kein json\n")})
	require.Error(t, err)
}

func TestReconcileEmptyInput(t *testing.T) {
	dataset, err := Reconcile(nil)
	require.NoError(t, err)
	assert.Empty(t, dataset.Rows)
	assert.Empty(t, dataset.Columns)
}
