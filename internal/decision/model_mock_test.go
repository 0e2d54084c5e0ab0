package decision

import (
	"context"
	"testing"

	"swapsignal/internal/gateway/provider"
	"swapsignal/internal/prompt"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockModel struct {
	mock.Mock
}

func (m *MockModel) ID() string { return "mock-model" }

func (m *MockModel) Call(ctx context.Context, payload provider.ChatPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func testPrompts(t *testing.T) *prompt.Registry {
	t.Helper()
	reg, err := prompt.NewRegistry("")
	require.NoError(t, err)
	return reg
}
