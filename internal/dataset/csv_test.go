package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartinventory/backend/internal/domain"
)

func TestLoadShelfLife(t *testing.T) {
	in := "Item,Shelf Life Days\nMilk,7\n Bananas ,5\nmilk,10\n,3\nbread,n/a\nRice,365\n"

	got, err := LoadShelfLife(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []domain.ShelfLifeEntry{
		{Item: "milk", Days: 7},
		{Item: "bananas", Days: 5},
		{Item: "rice", Days: 365},
	}, got)
}

func TestLoadShelfLife_MissingColumns(t *testing.T) {
	_, err := LoadShelfLife(strings.NewReader("foo,bar\n1,2\n"))
	assert.Error(t, err)

	_, err = LoadShelfLife(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoadWastage(t *testing.T) {
	in := "commodity,loss_percentage,activity,food_supply_stage,treatment\n" +
		" Rice ,4.5,Storage,Storage,30 days storage\n" +
		"Maize,,Storage,Farm,\n" +
		",3,Storage,Farm,\n" +
		"maize,2.5,Harvesting,Harvest,\n"

	got, err := LoadWastage(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 4, got.RawRows)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "rice", got.Records[0].Commodity)
	assert.Equal(t, 4.5, got.Records[0].LossPercentage)
	assert.Equal(t, "30 days storage", got.Records[0].Treatment)
	assert.Equal(t, "maize", got.Records[1].Commodity)
}
