package repository

import "github.com/willcagas/goose-trials-sub001/internal/domain/model"

// DefaultUniversities mirrors the rows seeded by the database migrations.
func DefaultUniversities() []model.University {
	return []model.University{
		{ID: "6d2f1a52-9c7e-4e0b-a7d1-0f3c5b8e1a01", Name: "University of Waterloo", CountryCode: "CA", Domains: []string{"uwaterloo.ca"}},
		{ID: "6d2f1a52-9c7e-4e0b-a7d1-0f3c5b8e1a02", Name: "University of Toronto", CountryCode: "CA", Domains: []string{"utoronto.ca", "mail.utoronto.ca"}},
		{ID: "6d2f1a52-9c7e-4e0b-a7d1-0f3c5b8e1a03", Name: "McGill University", CountryCode: "CA", Domains: []string{"mcgill.ca", "mail.mcgill.ca"}},
		{ID: "6d2f1a52-9c7e-4e0b-a7d1-0f3c5b8e1a04", Name: "University of British Columbia", CountryCode: "CA", Domains: []string{"ubc.ca", "student.ubc.ca"}},
		{ID: "6d2f1a52-9c7e-4e0b-a7d1-0f3c5b8e1a05", Name: "Massachusetts Institute of Technology", CountryCode: "US", Domains: []string{"mit.edu"}},
		{ID: "6d2f1a52-9c7e-4e0b-a7d1-0f3c5b8e1a06", Name: "Stanford University", CountryCode: "US", Domains: []string{"stanford.edu"}},
		{ID: "6d2f1a52-9c7e-4e0b-a7d1-0f3c5b8e1a07", Name: "University of Cambridge", CountryCode: "GB", Domains: []string{"cam.ac.uk"}},
	}
}
