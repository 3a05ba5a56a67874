package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name          string
		selected      []string
		prohibited    []string
		conflicts     []string
		labels        []string
		sensitive     bool
		needsApproval bool
	}{
		{
			name:     "nothing restricted",
			selected: []string{"retail", "technology"},
		},
		{
			name:          "sensitive tag on unrestricted space",
			selected:      []string{"alcohol"},
			prohibited:    []string{},
			sensitive:     true,
			needsApproval: true,
		},
		{
			name:          "restricted space without overlap",
			selected:      []string{"retail"},
			prohibited:    []string{"gambling"},
			needsApproval: true,
		},
		{
			name:          "explicit conflict",
			selected:      []string{"Gambling", "retail", "gambling"},
			prohibited:    []string{"gambling", "tobacco"},
			conflicts:     []string{"gambling"},
			labels:        []string{"Gambling"},
			sensitive:     true,
			needsApproval: true,
		},
		{
			name:          "non-sensitive conflict",
			selected:      []string{"fast_food"},
			prohibited:    []string{"fast_food"},
			conflicts:     []string{"fast_food"},
			labels:        []string{"Fast Food"},
			needsApproval: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Check(tt.selected, tt.prohibited)
			assert.Equal(t, tt.conflicts, res.Conflicts)
			assert.Equal(t, tt.labels, res.ConflictLabels)
			assert.Equal(t, tt.sensitive, res.Sensitive)
			assert.Equal(t, tt.needsApproval, res.NeedsApproval)
			assert.Equal(t, len(tt.conflicts) > 0, res.RequiresConfirmation())
		})
	}
}

func TestLabelFallback(t *testing.T) {
	assert.Equal(t, "Adult Content", Label("adult_content"))
	assert.Equal(t, "Pet Supplies", Label("pet_supplies"))
	assert.Equal(t, "Épicerie Fine", Label("épicerie_fine"))
	assert.Equal(t, "Ürün", Label("ÜRÜN"))
}

func TestSensitiveCategories(t *testing.T) {
	assert.Equal(t, []string{"adult_content", "alcohol", "gambling", "pharmaceutical", "political", "religious", "tobacco", "weapons"}, SensitiveCategories())
	assert.True(t, IsSensitive(" Weapons "))
	assert.False(t, IsSensitive("retail"))
}
