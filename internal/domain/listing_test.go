package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListing_Validate(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
		wantErr bool
	}{
		{"valid", Listing{ID: "l1", Seller: 1, Queue: []int64{2, 3}}, false},
		{"missing id", Listing{Seller: 1}, true},
		{"missing seller", Listing{ID: "l1"}, true},
		{"negative price", Listing{ID: "l1", Seller: 1, Price: -1}, true},
		{"seller queued", Listing{ID: "l1", Seller: 1, Queue: []int64{2, 1}}, true},
		{"duplicate", Listing{ID: "l1", Seller: 1, Queue: []int64{2, 2}}, true},
		{"faq without question", Listing{ID: "l1", Seller: 1, FAQ: []FAQEntry{{Answer: "5"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.listing.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestListing_Helpers(t *testing.T) {
	l := Listing{ID: "l1", Seller: 1, Queue: []int64{5, 7}}

	assert.Equal(t, int64(5), l.Head())
	assert.Equal(t, 1, l.Position(7))
	assert.Equal(t, -1, l.Position(9))
	assert.True(t, l.IsSeller(1))
	assert.Equal(t, "l1", l.DisplayTitle())
	assert.Equal(t, int64(0), (&Listing{}).Head())
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "@neo", (&User{Username: "neo", FirstName: "T"}).DisplayName())
	assert.Equal(t, "Thomas Anderson", (&User{FirstName: "Thomas", LastName: "Anderson"}).DisplayName())
	assert.Equal(t, "Thomas", (&User{FirstName: "Thomas"}).DisplayName())
	var nilUser *User
	assert.Empty(t, nilUser.DisplayName())
}
