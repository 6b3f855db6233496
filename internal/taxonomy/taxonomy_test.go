package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyText(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Add to cart, checkout now. Best price on every product in our store.", Ecommerce},
		{"See our menu and order food from the best dining room in town", Restaurant},
		{"Book a doctor at our clinic for treatment", Healthcare},
		{"We build software and digital platform tools", Technology},
		{"Enroll in a course and learn with training for every student", Education},
		{"Apply for a loan at your local bank with great credit", Finance},
		{"Talk to a lawyer or attorney before court", Legal},
		{"Find a house to rent or apply for a mortgage on a property", RealEstate},
		{"Lorem ipsum dolor sit amet", General},
		{"", General},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyText(tc.text), tc.text)
	}
}

func TestClassifyText_TieGoesToEarlierCategory(t *testing.T) {
	// one ecommerce hit ("shop") and one restaurant hit ("menu")
	assert.Equal(t, Ecommerce, ClassifyText("shop menu"))
}

func TestClassifyDomain(t *testing.T) {
	cases := map[string]string{
		"myshop.com":          Ecommerce,
		"bestcafe.net":        Restaurant,
		"acmetech.io":         Technology,
		"cityclinic.org":      Healthcare,
		"state.university.ac": Education,
		"firstbank.com":       Finance,
		"smithlegal.com":      Legal,
		"sunnyrealty.com":     RealEstate,
		"example.com":         BusinessServices,
		"techhealth.io":       Technology,
	}
	for host, want := range cases {
		assert.Equal(t, want, ClassifyDomain(host), host)
	}
}

func TestIndustryFor(t *testing.T) {
	assert.Equal(t, "Retail & E-commerce", IndustryFor(Ecommerce))
	assert.Equal(t, "Food & Beverage", IndustryFor(Restaurant))
	assert.Equal(t, "Information Technology", IndustryFor(Technology))
	assert.Equal(t, "Real Estate & Property", IndustryFor(RealEstate))
	assert.Equal(t, "Professional Services", IndustryFor(BusinessServices))
	assert.Equal(t, "General Business", IndustryFor(General))
	assert.Equal(t, "General Business", IndustryFor("Space Tourism"))
	assert.Equal(t, "Information Technology", IndustryFor("technology"))
}
