package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emerald-wallet/state/internal/kv"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	engine, err := kv.OpenMemory()
	require.NoError(t, err)
	s, err := OpenWithEngine(engine)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

const testXPub = "zpub6tWCR2jxaKabCC5rHL8skXr6HsqLY58oihn7Dm6pTvNSa4gpde5T2eQT12Wid8h3ygM5yWWwSzbjmFRGHut6JBPDD6kaESPsQCrGSMSSwJy"

func TestXPubPositionSerializeRoundTrip(t *testing.T) {
	for _, n := range []uint32{0, 1, 2, 5, 17, 100, 127, 128, 200, 255, 256, 300, 1000, 65535, 65536, 70000} {
		got := deserializeXPubPos(serializeXPubPos(n))
		assert.Equal(t, n, got)
	}
}

func TestXPubPositionSerializeBigEndian(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, serializeXPubPos(0))
	assert.Equal(t, []byte{0x00, 0x00, 0x03, 0xe8}, serializeXPubPos(1000))
}

func TestXPubKeyValidation(t *testing.T) {
	assert.True(t, isValidXPubKey("xpub6Ea1EGxsjJbbNvWvX6DsFKg2DzX1mryk8GaRB86BxC6VAtwUpKtL8nyQbMkonyiB28KUVLk5qYncZfFvmXTKdktntdgPdzoyBSFvMvCzdY1"))
	assert.True(t, isValidXPubKey(testXPub))
	assert.False(t, isValidXPubKey("hello world"))
	assert.False(t, isValidXPubKey(""))
}

func TestXPubPositionUpdatesValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetXPubPositionAtLeast(ctx, testXPub, 1))
	v, ok, err := s.GetXPubPosition(ctx, testXPub)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 1, v)

	require.NoError(t, s.SetXPubPositionAtLeast(ctx, testXPub, 3))
	v, ok, err = s.GetXPubPosition(ctx, testXPub)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 3, v)
}

func TestXPubPositionSkipsLowerValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetXPubPositionAtLeast(ctx, testXPub, 5))
	require.NoError(t, s.SetXPubPositionAtLeast(ctx, testXPub, 3))

	v, ok, err := s.GetXPubPosition(ctx, testXPub)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 5, v)
}

func TestXPubPositionNothingByDefault(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.GetXPubPosition(context.Background(), testXPub)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestXPubPositionNextIsZeroByDefault(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetNextXPubPosition(context.Background(), testXPub)
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)
}

func TestXPubPositionNextIsAfterCurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetXPubPositionAtLeast(ctx, testXPub, 5))
	v, err := s.GetNextXPubPosition(ctx, testXPub)
	require.NoError(t, err)
	assert.EqualValues(t, 6, v)
}

func TestXPubPositionRejectsInvalidXPub(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.SetXPubPositionAtLeast(ctx, "hello world", 1)
	assert.Error(t, err)

	_, _, err = s.GetXPubPosition(ctx, "hello world")
	assert.Error(t, err)
}
