package database

import (
	"testing"

	"github.com/evmorb/evmorb/config"
	"github.com/evmorb/evmorb/types"

	"github.com/stretchr/testify/require"
)

func getTestDb(t *testing.T) Database {
	t.Helper()

	db := NewDb(config.Config{DbDriver: "sqlite3", InMemory: true})
	err := db.Init()
	require.Nil(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestDb_SaveAndLoadTxRecord(t *testing.T) {
	db := getTestDb(t)

	rec := &types.TxRecord{
		Chain:  "ganache1",
		Sender: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		Nonce:  7,
		TxHash: "0xabc123",
		Status: types.TxRecordSubmitted,
	}
	require.Nil(t, db.SaveTxRecord(rec))

	loaded, err := db.LoadTxRecord(rec.Chain, rec.Sender, rec.Nonce)
	require.Nil(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, rec.TxHash, loaded.TxHash)
	require.Equal(t, types.TxRecordSubmitted, loaded.Status)

	// Unknown keys load as nil without error.
	loaded, err = db.LoadTxRecord(rec.Chain, rec.Sender, 8)
	require.Nil(t, err)
	require.Nil(t, loaded)
}

func TestDb_DuplicateSaveIsIgnored(t *testing.T) {
	db := getTestDb(t)

	rec := &types.TxRecord{Chain: "ganache1", Sender: "0xaa", Nonce: 1, TxHash: "0x01"}
	require.Nil(t, db.SaveTxRecord(rec))

	// Second broadcast attempt with the same (chain, sender, nonce) must not
	// overwrite the original hash.
	dup := &types.TxRecord{Chain: "ganache1", Sender: "0xaa", Nonce: 1, TxHash: "0x02"}
	require.Nil(t, db.SaveTxRecord(dup))

	loaded, err := db.LoadTxRecord("ganache1", "0xaa", 1)
	require.Nil(t, err)
	require.Equal(t, "0x01", loaded.TxHash)
}

func TestDb_UpdateTxStatus(t *testing.T) {
	db := getTestDb(t)

	rec := &types.TxRecord{Chain: "ganache1", Sender: "0xaa", Nonce: 1, TxHash: "0x01"}
	require.Nil(t, db.SaveTxRecord(rec))

	require.Nil(t, db.UpdateTxStatus("ganache1", "0x01", types.TxRecordConfirmed))

	loaded, err := db.LoadTxRecord("ganache1", "0xaa", 1)
	require.Nil(t, err)
	require.Equal(t, types.TxRecordConfirmed, loaded.Status)
}
