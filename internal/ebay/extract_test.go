package ebay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscout/internal/model"
)

func TestExtractISBN_Precedence(t *testing.T) {
	t.Run("explicit field wins over title", func(t *testing.T) {
		item := &ItemSummary{
			Title: "Calculus 9780134689517 hardcover",
			ISBN:  []string{"978-0-306-40615-7"},
		}
		got, ok := ExtractISBN(item)
		require.True(t, ok)
		assert.Equal(t, "9780306406157", got)
	})

	t.Run("gtin beats aspects", func(t *testing.T) {
		item := &ItemSummary{
			Gtin: "9780306406157",
			LocalizedAspects: []LocalizedAspect{
				{Name: "ISBN-13", Value: "9999999999999"},
			},
		}
		got, ok := ExtractISBN(item)
		require.True(t, ok)
		assert.Equal(t, "9780306406157", got)
	})

	t.Run("gtin of wrong length is skipped", func(t *testing.T) {
		item := &ItemSummary{
			Gtin: "00097800000",
			LocalizedAspects: []LocalizedAspect{
				{Name: "Book ISBN", Value: "0-306-40615-2"},
			},
		}
		got, ok := ExtractISBN(item)
		require.True(t, ok)
		assert.Equal(t, "0306406152", got)
	})

	t.Run("aspect name match is case-insensitive", func(t *testing.T) {
		item := &ItemSummary{
			LocalizedAspects: []LocalizedAspect{
				{Name: "Author", Value: "N. K. Jemisin"},
				{Name: "isbn-10", Value: "0306406152"},
			},
		}
		got, ok := ExtractISBN(item)
		require.True(t, ok)
		assert.Equal(t, "0306406152", got)
	})

	t.Run("title digits as last resort", func(t *testing.T) {
		item := &ItemSummary{Title: "Intro to Algorithms 9780262033848 3rd ed"}
		got, ok := ExtractISBN(item)
		require.True(t, ok)
		assert.Equal(t, "9780262033848", got)
	})

	t.Run("no match", func(t *testing.T) {
		item := &ItemSummary{Title: "Mystery box of 12 paperbacks"}
		_, ok := ExtractISBN(item)
		assert.False(t, ok)
	})
}

func TestDealFromItem(t *testing.T) {
	feedback := "99.4"
	item := &ItemSummary{
		ItemID:    "v1|110|0",
		Title:     "The Dispossessed",
		Price:     &Amount{Value: "12.99", Currency: "USD"},
		Condition: "Very Good",
		Seller:    &Seller{Username: "thriftreads", FeedbackPercentage: feedback},
		Image:     &Image{ImageURL: "https://i.ebayimg.com/images/g/abc/s-l500.jpg"},
		ShippingOptions: []ShippingOption{
			{ShippingCost: &Amount{Value: "3.50", Currency: "USD"}},
			{ShippingCost: &Amount{Value: "9.99", Currency: "USD"}},
		},
		ItemWebURL: "https://www.ebay.com/itm/110",
	}

	deal := DealFromItem(item)

	assert.Equal(t, "v1|110|0", deal.ItemID)
	assert.Equal(t, 1649, deal.TotalCents) // 12.99 + first shipping option 3.50
	assert.Equal(t, 350, deal.ShippingCents)
	assert.Equal(t, "thriftreads", deal.Seller)
	require.NotNil(t, deal.SellerFeedback)
	assert.InDelta(t, 99.4, *deal.SellerFeedback, 0.001)
	require.NotNil(t, deal.ImageURL)
	assert.Equal(t, model.StatusNew, deal.Status)
	assert.Nil(t, deal.ISBN)
}

func TestDealFromItem_MissingPrice(t *testing.T) {
	deal := DealFromItem(&ItemSummary{ItemID: "v1|111|0", Title: "No price"})
	assert.Equal(t, 0, deal.TotalCents)
	assert.Equal(t, "", deal.Seller)
}
