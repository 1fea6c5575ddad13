package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emerald-wallet/state/internal/indexing"
	"github.com/emerald-wallet/state/internal/model"
)

func bookItem(blockchain uint32, address, label string) model.BookItem {
	return model.BookItem{
		CreateTimestamp: 1_647_313_850_992,
		Blockchain:      blockchain,
		Label:           label,
		Address:         model.Address{Address: address},
	}
}

func TestAddressBookCreateAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "0xEdD91797204D3537fBaBDe0E0E42AaE99975f2Bb", "")
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	page, err := s.AddressBookQuery(ctx, AddressBookFilter{}, indexing.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, ids[0], page.Values[0].ID)
	assert.Nil(t, page.Cursor)
}

func TestAddressBookCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "0xEdD91797204D3537fBaBDe0E0E42AaE99975f2Bb", "")
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)

	got, err := s.AddressBookGet(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, item.Address.Address, got.CurrentAddress)
	assert.Equal(t, item.Blockchain, got.Blockchain)
}

func TestAddressBookCreateExistingIDAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "0xEdD91797204D3537fBaBDe0E0E42AaE99975f2Bb", "")
	item.ID = "989d7648-13e3-4cb9-acfb-85464f063b34"

	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)
	assert.Equal(t, item.ID, ids[0])
}

func TestAddressBookFindByText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "0xEdD91797204D3537fBaBDe0E0E42AaE99975f2Bb", "Hello World!")
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)

	page, err := s.AddressBookQuery(ctx, AddressBookFilter{Text: "world"}, indexing.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, ids[0], page.Values[0].ID)
}

func TestAddressBookFindByRussianText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "0xEdD91797204D3537fBaBDe0E0E42AaE99975f2Bb", "Привет Мир!")
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)

	page, err := s.AddressBookQuery(ctx, AddressBookFilter{Text: "мир"}, indexing.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, ids[0], page.Values[0].ID)
}

func TestAddressBookFindByOneCharOfText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "0xEdD91797204D3537fBaBDe0E0E42AaE99975f2Bb", "Hello World!")
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)

	page, err := s.AddressBookQuery(ctx, AddressBookFilter{Text: "h"}, indexing.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, ids[0], page.Values[0].ID)
}

func TestAddressBookFindByAddressPart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "0xEdD91797204D3537fBaBDe0E0E42AaE99975f2Bb", "Hello World!")
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)

	page, err := s.AddressBookQuery(ctx, AddressBookFilter{Text: "9179"}, indexing.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, ids[0], page.Values[0].ID)
}

func TestAddressBookUpdatesExistingEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "0xEdD91797204D3537fBaBDe0E0E42AaE99975f2Bb", "")
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)

	updated := item
	updated.Label = "Hello World!"
	require.NoError(t, s.AddressBookUpdate(ctx, ids[0], updated))

	page, err := s.AddressBookQuery(ctx, AddressBookFilter{}, indexing.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, "Hello World!", page.Values[0].Label)
}

func TestAddressBookSearchByUpdatedLabel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "0xEdD91797204D3537fBaBDe0E0E42AaE99975f2Bb", "")
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)

	updated := item
	updated.Label = "Hello World!"
	require.NoError(t, s.AddressBookUpdate(ctx, ids[0], updated))

	page, err := s.AddressBookQuery(ctx, AddressBookFilter{Text: "Hello"}, indexing.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, ids[0], page.Values[0].ID)
}

func TestAddressBookRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "0xEdD91797204D3537fBaBDe0E0E42AaE99975f2Bb", "")
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)

	require.NoError(t, s.AddressBookRemove(ctx, ids[0]))

	_, err = s.AddressBookGet(ctx, ids[0])
	assert.True(t, IsNotFound(err))

	page, err := s.AddressBookQuery(ctx, AddressBookFilter{}, indexing.PageQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Values)
}

func TestAddressBookValidatesAddress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := bookItem(101, "INVALID!!!", "")
	_, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	assert.Error(t, err)

	page, err := s.AddressBookQuery(ctx, AddressBookFilter{}, indexing.PageQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Values)
}

func TestAddressBookUsesCursor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		item := model.BookItem{
			CreateTimestamp: 1_647_313_850_000 - uint64(i),
			Blockchain:      101,
			Label:           fmt.Sprintf("Hello World! %d", i),
			Address:         model.Address{Address: fmt.Sprintf("0xEdD91797204D3537fBaBDe0E0E42AaE99975f00%d", i)},
		}
		_, err := s.AddressBookAdd(ctx, []model.BookItem{item})
		require.NoError(t, err)
	}

	page1, err := s.AddressBookQuery(ctx, AddressBookFilter{Text: "world"}, indexing.PageQuery{Limit: 5})
	require.NoError(t, err)
	require.Len(t, page1.Values, 5)
	assert.Equal(t, "Hello World! 0", page1.Values[0].Label)
	assert.Equal(t, "Hello World! 4", page1.Values[4].Label)
	require.NotNil(t, page1.Cursor)

	page2, err := s.AddressBookQuery(ctx, AddressBookFilter{Text: "world"}, indexing.PageQuery{Limit: 5, Cursor: page1.Cursor})
	require.NoError(t, err)
	require.Len(t, page2.Values, 5)
	assert.Equal(t, "Hello World! 5", page2.Values[0].Label)
	assert.Equal(t, "Hello World! 9", page2.Values[4].Label)
	require.NotNil(t, page2.Cursor)

	page3, err := s.AddressBookQuery(ctx, AddressBookFilter{Text: "world"}, indexing.PageQuery{Limit: 5, Cursor: page2.Cursor})
	require.NoError(t, err)
	assert.Nil(t, page3.Cursor)
}

const testXPubForAddressBook = "zpub6ttpB5kpi5EbjzUhRC9gqYBJEnDE5TKxN3wsBLh4TM1JJz8ZKcpCjtrmvw8bAQVUkxTcMUBcHK9oGgAAhe97Xpd8HDNzzDx59u13wz32dyS"

func TestAddressBookXPubEnrichment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := model.BookItem{
		Blockchain: 1,
		Address:    model.Address{Address: testXPubForAddressBook, FieldType: model.AddressFieldXPub},
	}
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)

	got, err := s.AddressBookGet(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.AddressFieldXPub, got.Address.FieldType)
	assert.Equal(t, "bc1qkr8kmwrpmw304x3pvthcqqc986v7hjajfem859", got.CurrentAddress)

	require.NoError(t, s.SetXPubPositionAtLeast(ctx, testXPubForAddressBook, 6))

	got, err = s.AddressBookGet(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "bc1q03p495zw08k8dvdl9guy5nw3kw7qmfsx2y7g3f", got.CurrentAddress)
}

func TestAddressBookQueryXPubEnrichment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := model.BookItem{
		Blockchain: 1,
		Address:    model.Address{Address: testXPubForAddressBook, FieldType: model.AddressFieldXPub},
	}
	ids, err := s.AddressBookAdd(ctx, []model.BookItem{item})
	require.NoError(t, err)

	page, err := s.AddressBookQuery(ctx, AddressBookFilter{}, indexing.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, ids[0], page.Values[0].ID)
	assert.Equal(t, "bc1qkr8kmwrpmw304x3pvthcqqc986v7hjajfem859", page.Values[0].CurrentAddress)

	require.NoError(t, s.SetXPubPositionAtLeast(ctx, testXPubForAddressBook, 6))

	page, err = s.AddressBookQuery(ctx, AddressBookFilter{}, indexing.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, "bc1q03p495zw08k8dvdl9guy5nw3kw7qmfsx2y7g3f", page.Values[0].CurrentAddress)
}
