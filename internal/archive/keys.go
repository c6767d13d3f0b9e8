package archive

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var keyComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// FilingKey builds the cache key for a fetched 10-K primary document.
func FilingKey(cik, accession, primaryDocument string) (string, error) {
	if err := validateKeyComponent(cik, "cik"); err != nil {
		return "", err
	}
	if err := validateKeyComponent(accession, "accession number"); err != nil {
		return "", err
	}
	if err := validateKeyComponent(primaryDocument, "primary document"); err != nil {
		return "", err
	}
	return path.Join("filings", cik, accession, primaryDocument), nil
}

// ExportKey builds the key for a parquet result export, partitioned by day.
func ExportKey(name string, at time.Time) (string, error) {
	name = strings.TrimSuffix(name, ".parquet")
	if err := validateKeyComponent(name, "export name"); err != nil {
		return "", err
	}
	ts := at.UTC()
	return path.Join(
		"exports",
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("%s-%d.parquet", name, ts.Unix()),
	), nil
}

func validateKeyComponent(value, field string) error {
	if !keyComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
