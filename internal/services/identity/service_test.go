package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmnode/internal/crypto"
	"llmnode/internal/services/identity"
	"llmnode/internal/store"
)

const strongPassphrase = "Tr0ub4dor&3-horse"

func newService(t *testing.T) *identity.Service {
	t.Helper()
	return identity.New(store.NewNodeKeyStore(t.TempDir()).WithScryptParams(1<<10, 8, 1))
}

func TestGenerate_RejectsWeakPassphrase(t *testing.T) {
	svc := newService(t)
	for _, p := range []string{"", "short1!A", "alllowercase1!", "ALLUPPERCASE1!", "NoDigitsHere!!", "NoSymbols12345"} {
		_, err := svc.Generate(p)
		assert.ErrorIs(t, err, identity.ErrWeakPassphrase, p)
	}
}

func TestGenerate_ThenDescribe(t *testing.T) {
	svc := newService(t)
	id, err := svc.Generate(strongPassphrase)
	require.NoError(t, err)
	assert.Regexp(t, `^0x[0-9a-f]{40}$`, string(id.Address))
	assert.Len(t, string(id.Fingerprint), 20)

	again, err := svc.Describe(strongPassphrase)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestImport_KnownKey(t *testing.T) {
	svc := newService(t)
	key, err := crypto.ParseNodePrivateKeyHex("0x0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)

	id, err := svc.Import(strongPassphrase, key)
	require.NoError(t, err)
	assert.Equal(t, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", string(id.Address))

	loaded, err := svc.Load(strongPassphrase)
	require.NoError(t, err)
	assert.Equal(t, key, loaded)
}
