// Package registry defines the Registry Stage's three external lookup
// ports (company, VAT, director) per §4.5. All ports degrade to a nil
// result on network failure: the registry stage never fails a job.
package registry

import "context"

// CompanyProfile is a normalized company registry record.
type CompanyProfile struct {
	Name         string
	Number       string
	Address      string
	CreationDate *string
	Officers     []Officer
	Raw          map[string]interface{}
}

// Officer is one entry in a company's officer/director listing.
type Officer struct {
	Name           string
	DateOfBirth    *string
	Role           string
	AppointedOn    *string
	Raw            map[string]interface{}
}

// CompanyPort looks up a company by its registered number.
type CompanyPort interface {
	GetProfile(ctx context.Context, companyNumber string) (*CompanyProfile, error)
	GetOfficers(ctx context.Context, companyNumber string) ([]Officer, error)
}

// VATRecord is a normalized VAT registry record.
type VATRecord struct {
	Name             string
	Address          string
	RegistrationDate *string
	Valid            bool
}

// VATPort checks a VAT registration number against the tax authority.
type VATPort interface {
	CheckVAT(ctx context.Context, vatNumber string) (*VATRecord, error)
}

// DirectorMatch is the outcome of matching a declared director against a
// company's officer listing.
type DirectorMatch struct {
	Verified    bool
	Reason      string
	Officer     *Officer
	Unreachable bool
}
