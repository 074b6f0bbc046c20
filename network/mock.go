package network

type MockHttp struct {
	GetFunc func(url string) ([]byte, error)
}

func (m *MockHttp) Get(url string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(url)
	}

	return nil, nil
}
