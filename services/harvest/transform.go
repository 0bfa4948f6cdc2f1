package harvest

import (
	"strings"

	"brokerscan/lib/scrapers/brokers"
)

// OutputRow is the final exported unit, one per qualifying mobile
// contact.
type OutputRow struct {
	Street       string
	Number       string
	Name         string
	Document     string
	City         string
	Neighborhood string
	Uf           string
	PhoneNumber  string
	Priority     int64
	Score        float64
	Plus         bool
	NotDisturb   int64
}

// MobileRows keeps only the mobile-typed contact entries, preserving
// their relative order, and joins each with its resident and street
// context. Pure, no network or timing side effects.
func MobileRows(street string, resident brokers.Resident, persons []brokers.ContactPerson) []OutputRow {
	var rows []OutputRow
	for _, person := range persons {
		for _, entry := range person.ContactInfos {
			if !entry.IsMobile() {
				continue
			}
			rows = append(rows, OutputRow{
				Street:       strings.TrimSpace(street),
				Number:       strings.TrimSpace(resident.NumberString()),
				Name:         strings.TrimSpace(person.PfData.Name),
				Document:     strings.TrimSpace(person.Document),
				City:         strings.TrimSpace(resident.CityString()),
				Neighborhood: strings.TrimSpace(resident.NeighborhoodString()),
				Uf:           strings.TrimSpace(resident.UfString()),
				PhoneNumber:  strings.TrimSpace(entry.PhoneNumber),
				Priority:     entry.Priority,
				Score:        entry.Score,
				Plus:         entry.Plus,
				NotDisturb:   entry.NotDisturb,
			})
		}
	}
	return rows
}

func phoneDigits(phone string) int {
	n := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// Brazilian numbers carry at least an area code plus an 8 digit line,
// anything shorter is garbage from the platform.
func validPhone(phone string) bool {
	return phoneDigits(phone) >= 10
}
