package operator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
)

func TestFactoryTypes(t *testing.T) {
	f := NewFactory()
	assert.Equal(t, []types.ProviderType{types.ProviderTypeKubernetesJobs, types.ProviderTypeBullMQ}, f.Types())
}

func TestFactoryCreate(t *testing.T) {
	f := NewFactory()

	p, err := f.Create(types.ProviderConfig{
		Name:       "main",
		Type:       types.ProviderTypeBullMQ,
		Connection: map[string]string{"addr": "127.0.0.1:6379"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.ProviderTypeBullMQ, p.Type())
	assert.Equal(t, "main", p.Name())
}

func TestFactoryFailsClosed(t *testing.T) {
	f := NewFactory()

	_, err := f.Create(types.ProviderConfig{Name: "x", Type: "rabbitmq"})
	assert.ErrorIs(t, err, types.ErrUnsupportedProviderType)

	_, err = f.Create(types.ProviderConfig{Name: " ", Type: types.ProviderTypeBullMQ})
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrUnsupportedProviderType)
}
