package comparison

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeStatus(t *testing.T) {
	assert.Equal(t, StatusAdded, Change{Field: "Port", NewValue: 80}.Status())
	assert.Equal(t, StatusRemoved, Change{Field: "Port", OldValue: 80}.Status())
	assert.Equal(t, StatusModified, Change{Field: "Port", OldValue: 80, NewValue: 81}.Status())
	assert.Equal(t, StatusModified, Change{Field: "Port"}.Status())
}

func TestWarnings(t *testing.T) {
	modified := ObjectComparison{
		Name:   "web",
		Type:   ObjectTypeService,
		Status: StatusModified,
		Changes: []Change{
			{Field: "Port", OldValue: 80, NewValue: nil},
			{Field: "Secret", OldValue: "TEST", NewValue: "THING"},
			{Field: "Image", OldValue: "a", NewValue: "b"},
		},
	}

	warnings := Warnings([]ObjectComparison{modified})
	assert.Equal(t, []string{ChangeRules[0].Message, ChangeRules[1].Message}, warnings)

	added := ObjectComparison{Name: "api", Type: ObjectTypeService, Status: StatusAdded}
	assert.Len(t, Warnings([]ObjectComparison{modified, added}), 2)
}

func TestWarningsIgnoreNonMatchingStatus(t *testing.T) {
	comparisons := []ObjectComparison{{
		Name:   "web",
		Status: StatusModified,
		Changes: []Change{
			{Field: "Port", OldValue: nil, NewValue: 443},
			{Field: "Secret", OldValue: "OLD", NewValue: nil},
		},
	}}
	assert.Empty(t, Warnings(comparisons))
}

func TestWarningsOnlyForModifiedObjects(t *testing.T) {
	comparisons := []ObjectComparison{{
		Name:    "web",
		Status:  StatusRemoved,
		Changes: []Change{{Field: "Port", OldValue: 80}},
	}}
	assert.Empty(t, Warnings(comparisons))
}

func TestWarningsOncePerRule(t *testing.T) {
	comparisons := []ObjectComparison{
		{Name: "a", Status: StatusModified, Changes: []Change{{Field: "Port", OldValue: 80}}},
		{Name: "b", Status: StatusModified, Changes: []Change{{Field: "Port", OldValue: 81}}},
	}
	assert.Equal(t, []string{ChangeRules[0].Message}, Warnings(comparisons))
}
