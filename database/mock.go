package database

import "github.com/evmorb/evmorb/types"

type MockDb struct {
	InitFunc           func() error
	SaveTxRecordFunc   func(rec *types.TxRecord) error
	LoadTxRecordFunc   func(chain, sender string, nonce uint64) (*types.TxRecord, error)
	UpdateTxStatusFunc func(chain, txHash string, status types.TxRecordStatus) error
	CloseFunc          func() error
}

func (m *MockDb) Init() error {
	if m.InitFunc != nil {
		return m.InitFunc()
	}

	return nil
}

func (m *MockDb) SaveTxRecord(rec *types.TxRecord) error {
	if m.SaveTxRecordFunc != nil {
		return m.SaveTxRecordFunc(rec)
	}

	return nil
}

func (m *MockDb) LoadTxRecord(chain, sender string, nonce uint64) (*types.TxRecord, error) {
	if m.LoadTxRecordFunc != nil {
		return m.LoadTxRecordFunc(chain, sender, nonce)
	}

	return nil, nil
}

func (m *MockDb) UpdateTxStatus(chain, txHash string, status types.TxRecordStatus) error {
	if m.UpdateTxStatusFunc != nil {
		return m.UpdateTxStatusFunc(chain, txHash, status)
	}

	return nil
}

func (m *MockDb) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}

	return nil
}
