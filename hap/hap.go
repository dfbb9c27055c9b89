// Package hap defines the primitive types shared by the ancestor
// construction and haplotype threading packages.
package hap

import "fmt"

// Allele is a single genotype or haplotype state.  Observed genotypes are
// restricted to {Ancestral, Derived}; reconstructed ancestral haplotypes
// additionally use Unknown for sites outside their valid span.
type Allele int8

const (
	// Ancestral marks a site carrying the ancestral allele.
	Ancestral Allele = 0
	// Derived marks a site carrying the derived allele.
	Derived Allele = 1
	// Unknown marks a site whose state has not been reconstructed.
	Unknown Allele = -1
)

func (a Allele) String() string {
	switch a {
	case Ancestral:
		return "0"
	case Derived:
		return "1"
	case Unknown:
		return "."
	default:
		return fmt.Sprintf("Allele(%d)", int8(a))
	}
}

// SiteID identifies a variant site by its index in [0, numSites).
type SiteID int32

// CheckGenotypes verifies that every value of g is Ancestral or Derived and
// returns the derived-allele count.
func CheckGenotypes(g []Allele) (frequency int, err error) {
	for i, a := range g {
		switch a {
		case Derived:
			frequency++
		case Ancestral:
		default:
			return 0, fmt.Errorf("hap: genotype value %d at offset %d not in {0,1}", int8(a), i)
		}
	}
	return frequency, nil
}
