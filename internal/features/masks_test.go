package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domain "github.com/hanko-field/namedivider/internal/domain"
)

func TestOrderMask(t *testing.T) {
	cases := []struct {
		name    string
		fullLen int
		want    [][domain.OrderClasses]int
	}{
		{name: "three", fullLen: 3, want: [][domain.OrderClasses]int{
			{0, 0, 1, 1, 0, 0},
		}},
		{name: "four", fullLen: 4, want: [][domain.OrderClasses]int{
			{0, 1, 1, 1, 0, 0},
			{0, 0, 1, 1, 1, 0},
		}},
		{name: "five", fullLen: 5, want: [][domain.OrderClasses]int{
			{0, 1, 1, 1, 0, 0},
			{0, 1, 1, 1, 1, 0},
			{0, 0, 1, 1, 1, 0},
		}},
		{name: "six", fullLen: 6, want: [][domain.OrderClasses]int{
			{0, 1, 1, 1, 0, 0},
			{0, 1, 1, 1, 1, 0},
			{0, 1, 1, 1, 1, 0},
			{0, 0, 1, 1, 1, 0},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i, want := range tc.want {
				got, ok := orderMask(tc.fullLen, i+1)
				assert.True(t, ok, "index %d", i+1)
				assert.Equal(t, want, got, "index %d", i+1)
			}
		})
	}
}

func TestOrderMaskSkipsOuterCharacters(t *testing.T) {
	for _, fullLen := range []int{2, 3, 4, 7} {
		_, ok := orderMask(fullLen, 0)
		assert.False(t, ok)
		_, ok = orderMask(fullLen, fullLen-1)
		assert.False(t, ok)
	}
}

func TestLengthMask(t *testing.T) {
	cases := []struct {
		name    string
		fullLen int
		want    [][domain.LengthClasses]int
	}{
		{name: "two", fullLen: 2, want: [][domain.LengthClasses]int{
			{1, 0, 0, 0, 0, 0, 0, 0},
			{0, 0, 0, 0, 1, 0, 0, 0},
		}},
		{name: "three", fullLen: 3, want: [][domain.LengthClasses]int{
			{1, 1, 0, 0, 0, 0, 0, 0},
			{0, 1, 0, 0, 0, 1, 0, 0},
			{0, 0, 0, 0, 1, 1, 0, 0},
		}},
		{name: "four", fullLen: 4, want: [][domain.LengthClasses]int{
			{1, 1, 1, 0, 0, 0, 0, 0},
			{0, 1, 1, 0, 0, 0, 1, 0},
			{0, 0, 1, 0, 0, 1, 1, 0},
			{0, 0, 0, 0, 1, 1, 1, 0},
		}},
		{name: "five", fullLen: 5, want: [][domain.LengthClasses]int{
			{1, 1, 1, 1, 0, 0, 0, 0},
			{0, 1, 1, 1, 0, 0, 0, 1},
			{0, 0, 1, 1, 0, 0, 1, 1},
			{0, 0, 0, 1, 0, 1, 1, 1},
			{0, 0, 0, 0, 1, 1, 1, 1},
		}},
		{name: "six clamps at four", fullLen: 6, want: [][domain.LengthClasses]int{
			{1, 1, 1, 1, 0, 0, 0, 0},
			{0, 1, 1, 1, 0, 0, 0, 1},
			{0, 0, 1, 1, 0, 0, 0, 1},
			{0, 0, 0, 1, 0, 0, 1, 1},
			{0, 0, 0, 1, 0, 1, 1, 1},
			{0, 0, 0, 0, 1, 1, 1, 1},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i, want := range tc.want {
				assert.Equal(t, want, lengthMask(tc.fullLen, i), "index %d", i)
			}
		})
	}
}

func TestOrderStatus(t *testing.T) {
	assert.Equal(t, domain.OrderFamilyStart, orderStatus(1, 0, true))
	assert.Equal(t, domain.OrderGivenStart, orderStatus(1, 0, false))
	assert.Equal(t, domain.OrderFamilyMiddle, orderStatus(3, 1, true))
	assert.Equal(t, domain.OrderFamilyEnd, orderStatus(3, 2, true))
	assert.Equal(t, domain.OrderGivenMiddle, orderStatus(4, 2, false))
	assert.Equal(t, domain.OrderGivenEnd, orderStatus(2, 1, false))
}

func TestLengthStatus(t *testing.T) {
	assert.Equal(t, 0, lengthStatus(1, true))
	assert.Equal(t, 3, lengthStatus(4, true))
	assert.Equal(t, 3, lengthStatus(9, true))
	assert.Equal(t, 5, lengthStatus(2, false))
	assert.Equal(t, 7, lengthStatus(5, false))
}
