package harvest

import (
	"encoding/json"
	"testing"

	"brokerscan/lib/scrapers/brokers"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testResident(t *testing.T) brokers.Resident {
	t.Helper()
	var resident brokers.Resident
	err := json.Unmarshal([]byte(`{
		"number": 42,
		"street": "Rua Tabajaras",
		"city": "Uberlândia",
		"cityId": 981,
		"neighborhood": "Centro",
		"uf": "MG"
	}`), &resident)
	require.NoError(t, err)
	return resident
}

func TestMobileRowsFiltersLandlines(t *testing.T) {
	persons := []brokers.ContactPerson{{
		Document: "12345678900",
		PfData:   brokers.PfData{Name: "MARIA SILVA"},
		ContactInfos: []brokers.ContactEntry{
			{Type: "TELEFONE FIXO", PhoneNumber: "3432221111"},
			{Type: brokers.MobileContactType, PhoneNumber: "34991112222", Priority: 1, Score: 0.9, Plus: true},
			{Type: "EMAIL", PhoneNumber: ""},
			{Type: brokers.MobileContactType, PhoneNumber: "34993334444", Priority: 2, Score: 0.5, NotDisturb: 1},
		},
	}}

	rows := MobileRows("Rua Tabajaras", testResident(t), persons)
	require.Len(t, rows, 2)

	want := []OutputRow{
		{
			Street:       "Rua Tabajaras",
			Number:       "42",
			Name:         "MARIA SILVA",
			Document:     "12345678900",
			City:         "Uberlândia",
			Neighborhood: "Centro",
			Uf:           "MG",
			PhoneNumber:  "34991112222",
			Priority:     1,
			Score:        0.9,
			Plus:         true,
		},
		{
			Street:       "Rua Tabajaras",
			Number:       "42",
			Name:         "MARIA SILVA",
			Document:     "12345678900",
			City:         "Uberlândia",
			Neighborhood: "Centro",
			Uf:           "MG",
			PhoneNumber:  "34993334444",
			Priority:     2,
			Score:        0.5,
			NotDisturb:   1,
		},
	}
	require.Empty(t, cmp.Diff(want, rows))
}

func TestMobileRowsNoMobiles(t *testing.T) {
	persons := []brokers.ContactPerson{{
		Document: "12345678900",
		ContactInfos: []brokers.ContactEntry{
			{Type: "TELEFONE FIXO", PhoneNumber: "3432221111"},
		},
	}}
	rows := MobileRows("Rua Tabajaras", testResident(t), persons)
	require.Empty(t, rows)
}

func TestMobileRowsPreservesOrderAcrossPersons(t *testing.T) {
	persons := []brokers.ContactPerson{
		{
			Document: "1",
			ContactInfos: []brokers.ContactEntry{
				{Type: brokers.MobileContactType, PhoneNumber: "34990000001"},
				{Type: brokers.MobileContactType, PhoneNumber: "34990000002"},
			},
		},
		{
			Document: "2",
			ContactInfos: []brokers.ContactEntry{
				{Type: brokers.MobileContactType, PhoneNumber: "34990000003"},
			},
		},
	}

	rows := MobileRows("Rua Tabajaras", testResident(t), persons)
	require.Len(t, rows, 3)
	require.Equal(t, "34990000001", rows[0].PhoneNumber)
	require.Equal(t, "34990000002", rows[1].PhoneNumber)
	require.Equal(t, "34990000003", rows[2].PhoneNumber)
}

func TestMobileRowsDeterministic(t *testing.T) {
	persons := []brokers.ContactPerson{{
		Document: "12345678900",
		ContactInfos: []brokers.ContactEntry{
			{Type: brokers.MobileContactType, PhoneNumber: "34991112222"},
		},
	}}
	resident := testResident(t)

	first := MobileRows("Rua Tabajaras", resident, persons)
	second := MobileRows("Rua Tabajaras", resident, persons)
	require.Empty(t, cmp.Diff(first, second))
}

func TestMobileRowsTrimsWhitespace(t *testing.T) {
	persons := []brokers.ContactPerson{{
		Document: " 12345678900 ",
		PfData:   brokers.PfData{Name: "  MARIA SILVA "},
		ContactInfos: []brokers.ContactEntry{
			{Type: brokers.MobileContactType, PhoneNumber: " 34991112222 "},
		},
	}}
	rows := MobileRows("  Rua Tabajaras ", testResident(t), persons)
	require.Len(t, rows, 1)
	require.Equal(t, "Rua Tabajaras", rows[0].Street)
	require.Equal(t, "MARIA SILVA", rows[0].Name)
	require.Equal(t, "12345678900", rows[0].Document)
	require.Equal(t, "34991112222", rows[0].PhoneNumber)
}

func TestValidPhone(t *testing.T) {
	require.True(t, validPhone("34991112222"))
	require.True(t, validPhone("(34) 99111-2222"))
	require.False(t, validPhone("991122"))
	require.False(t, validPhone(""))
	require.False(t, validPhone("telefone"))
}
